package enums

import "fmt"

// StockAlertType identifies why a stock alert was raised.
type StockAlertType string

const (
	StockAlertTypeLowStock          StockAlertType = "low_stock"
	StockAlertTypeCriticalStock     StockAlertType = "critical_stock"
	StockAlertTypeCustomOrderNeeded StockAlertType = "custom_order_needed"
	StockAlertTypeReorderPoint      StockAlertType = "reorder_point"
)

var validStockAlertTypes = []StockAlertType{
	StockAlertTypeLowStock,
	StockAlertTypeCriticalStock,
	StockAlertTypeCustomOrderNeeded,
	StockAlertTypeReorderPoint,
}

// String implements fmt.Stringer.
func (t StockAlertType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known StockAlertType.
func (t StockAlertType) IsValid() bool {
	for _, candidate := range validStockAlertTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockAlertType converts raw input into a StockAlertType.
func ParseStockAlertType(value string) (StockAlertType, error) {
	for _, candidate := range validStockAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock alert type %q", value)
}

// StockAlertStatus tracks the handling state of a stock alert.
type StockAlertStatus string

const (
	StockAlertStatusActive       StockAlertStatus = "active"
	StockAlertStatusAcknowledged StockAlertStatus = "acknowledged"
	StockAlertStatusResolved     StockAlertStatus = "resolved"
)

// String implements fmt.Stringer.
func (s StockAlertStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockAlertStatus.
func (s StockAlertStatus) IsValid() bool {
	switch s {
	case StockAlertStatusActive, StockAlertStatusAcknowledged, StockAlertStatusResolved:
		return true
	default:
		return false
	}
}
