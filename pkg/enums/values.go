package enums

import (
	"fmt"
	"slices"
)

func member[T ~string](set []T, value T) bool {
	return slices.Contains(set, value)
}

func parse[T ~string](label string, set []T, value string) (T, error) {
	if candidate := T(value); member(set, candidate) {
		return candidate, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", label, value)
}
