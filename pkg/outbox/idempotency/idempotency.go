// Package idempotency suppresses repeated signals for the same subject within
// a TTL window. The low-stock policy uses it so a product that stays below its
// threshold raises one notification per window instead of one per sync run.
package idempotency

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/redis"
)

const windowScope = "window"

// Window marks (scope, subject) pairs as signalled until the TTL elapses.
// A zero TTL keeps the mark until Release is called.
type Window struct {
	store redis.KeyStore
	ttl   time.Duration
}

func NewWindow(store redis.KeyStore, ttl time.Duration) (*Window, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window store is required")
	}
	if ttl < 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "window ttl %s is negative", ttl)
	}
	return &Window{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether subject was already signalled in the current
// window. When it was not, the mark is taken atomically.
func (w *Window) CheckAndMark(ctx context.Context, scope, subject string) (bool, error) {
	key, err := w.key(scope, subject)
	if err != nil {
		return false, err
	}
	taken, err := w.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), w.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark signal window")
	}
	return !taken, nil
}

// Release clears the mark, typically once stock recovers or when the signal
// could not be delivered.
func (w *Window) Release(ctx context.Context, scope, subject string) error {
	key, err := w.key(scope, subject)
	if err != nil {
		return err
	}
	if err := w.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release signal window")
	}
	return nil
}

func (w *Window) key(scope, subject string) (string, error) {
	scope, subject = strings.TrimSpace(scope), strings.TrimSpace(subject)
	switch {
	case scope == "":
		return "", pkgerrors.New(pkgerrors.CodeValidation, "window scope is required")
	case subject == "":
		return "", pkgerrors.New(pkgerrors.CodeValidation, "window subject is required")
	}
	return w.store.Key(windowScope+":"+scope, subject), nil
}
