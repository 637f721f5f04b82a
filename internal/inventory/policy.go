package inventory

import "fmt"

// LowStockPolicy decides whether a repeated low-stock signal is recorded.
type LowStockPolicy string

const (
	// PolicyAlways records a signal on every listing while stock is low.
	PolicyAlways LowStockPolicy = "always"
	// PolicyUnresolved skips products that already have an unresolved signal.
	PolicyUnresolved LowStockPolicy = "unresolved"
	// PolicyWindow records at most one signal per product per time window.
	PolicyWindow LowStockPolicy = "window"
)

func ParseLowStockPolicy(value string) (LowStockPolicy, error) {
	switch LowStockPolicy(value) {
	case PolicyAlways, PolicyUnresolved, PolicyWindow:
		return LowStockPolicy(value), nil
	case "":
		return PolicyUnresolved, nil
	default:
		return "", fmt.Errorf("invalid low stock policy %q", value)
	}
}
