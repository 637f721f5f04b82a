package instance

import (
	"os"
	"strings"
)

const defaultID = "worker-0"

// GetID returns the process instance identifier used to tag lock owners and
// worker logs. COLLETTE_INSTANCE_ID wins, then the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("COLLETTE_INSTANCE_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && strings.TrimSpace(host) != "" {
		return host
	}
	return defaultID
}
