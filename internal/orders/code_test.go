package orders

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
)

func sequence(values ...int) func(int) int {
	var mu sync.Mutex
	i := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		v := values[i%len(values)]
		i++
		return v % n
	}
}

func TestGenerateCodeSkipsTakenCodes(t *testing.T) {
	taken := map[string]bool{"#ORD1000": true, "#ORD1001": true}
	exists := func(ctx context.Context, code string) (bool, error) {
		return taken[code], nil
	}

	code, err := GenerateCode(context.Background(), CodeParams{Prefix: "#ORD", Digits: 4, IntN: sequence(0, 1, 2)}, exists)
	require.NoError(t, err)
	require.Equal(t, "#ORD1002", code)
}

func TestGenerateCodeFormat(t *testing.T) {
	free := func(ctx context.Context, code string) (bool, error) { return false, nil }

	code, err := GenerateCode(context.Background(), CodeParams{Prefix: "#ORD"}, free)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^#ORD[1-9][0-9]{3}$`), code)

	code, err = GenerateCode(context.Background(), CodeParams{Prefix: "#ORD", Digits: 6}, free)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^#ORD[1-9][0-9]{5}$`), code)
}

func TestGenerateCodeExhausted(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := GenerateCode(context.Background(), CodeParams{Prefix: "#ORD", MaxAttempts: 3}, exists)
	require.ErrorIs(t, err, ErrOrderCodeExhausted)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.Equal(t, 3, calls)
}

func TestGenerateCodeStoreFailure(t *testing.T) {
	exists := func(ctx context.Context, code string) (bool, error) {
		return false, errors.New("store down")
	}
	_, err := GenerateCode(context.Background(), CodeParams{}, exists)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestGenerateCodeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateCode(ctx, CodeParams{}, func(context.Context, string) (bool, error) { return false, nil })
	require.ErrorIs(t, err, context.Canceled)
}

// codeStore mimics a unique index: reserve fails when a racer won the code.
type codeStore struct {
	mu    sync.Mutex
	codes map[string]bool
}

func (s *codeStore) exists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[code], nil
}

func (s *codeStore) reserve(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes[code] {
		return false
	}
	s.codes[code] = true
	return true
}

func TestConcurrentCodesArePairwiseDistinct(t *testing.T) {
	store := &codeStore{codes: map[string]bool{}}
	const orders = 60
	results := make([]string, orders)

	var g errgroup.Group
	for i := 0; i < orders; i++ {
		g.Go(func() error {
			for {
				code, err := GenerateCode(context.Background(), CodeParams{Prefix: "#ORD", Digits: 2, MaxAttempts: 10000}, store.exists)
				if err != nil {
					return err
				}
				if store.reserve(code) {
					results[i] = code
					return nil
				}
			}
		})
	}
	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	for _, code := range results {
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	require.Len(t, seen, orders)
}
