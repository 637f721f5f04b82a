package types

// SuccessEnvelope wraps every 2xx body. Meta is set on paged listings only;
// Warnings is set when the data is complete enough to serve but some parts failed.
type SuccessEnvelope struct {
	Data     any        `json:"data"`
	Meta     *PageMeta  `json:"meta,omitempty"`
	Warnings []APIError `json:"warnings,omitempty"`
}

// PageMeta carries the opaque cursor for the next page; empty on the last page.
type PageMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
	Count      int    `json:"count"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
