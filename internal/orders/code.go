package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
)

// ErrOrderCodeExhausted is returned when every allowed draw hit an existing code.
var ErrOrderCodeExhausted = errors.New("order code space exhausted")

// CodeParams configures order code generation.
type CodeParams struct {
	Prefix      string
	Digits      int
	MaxAttempts int
	// IntN returns a value in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// GenerateCode draws random fixed-width suffixes until exists reports a free
// code. Draws start at 10^(digits-1) so every code has exactly Digits digits.
func GenerateCode(ctx context.Context, params CodeParams, exists ExistsFunc) (string, error) {
	if exists == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "code existence check required")
	}
	digits := params.Digits
	if digits <= 0 {
		digits = 4
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = 1000
	}
	intN := params.IntN
	if intN == nil {
		intN = rand.IntN
	}

	low := pow10(digits - 1)
	span := pow10(digits) - low

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate order code")
		}
		code := fmt.Sprintf("%s%0*d", params.Prefix, digits, low+intN(span))
		taken, err := exists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order code")
		}
		if !taken {
			return code, nil
		}
	}
	return "", pkgerrors.Wrap(pkgerrors.CodeConflict, ErrOrderCodeExhausted, "no free order code").
		WithDetails(map[string]any{"attempts": attempts})
}

func pow10(n int) int {
	out := 1
	for i := 0; i < n; i++ {
		out *= 10
	}
	return out
}
