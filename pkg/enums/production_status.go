package enums

import "fmt"

// ProductionStatus tracks where an order sits in the manufacturing pipeline.
type ProductionStatus string

const (
	ProductionStatusNotStarted   ProductionStatus = "not_started"
	ProductionStatusCutting      ProductionStatus = "cutting"
	ProductionStatusSewing       ProductionStatus = "sewing"
	ProductionStatusFinishing    ProductionStatus = "finishing"
	ProductionStatusQualityCheck ProductionStatus = "quality_check"
	ProductionStatusCompleted    ProductionStatus = "completed"
)

// validProductionStatuses doubles as the fixed forward sequence of stages.
var validProductionStatuses = []ProductionStatus{
	ProductionStatusNotStarted,
	ProductionStatusCutting,
	ProductionStatusSewing,
	ProductionStatusFinishing,
	ProductionStatusQualityCheck,
	ProductionStatusCompleted,
}

// String implements fmt.Stringer.
func (s ProductionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductionStatus.
func (s ProductionStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the stage index in the pipeline sequence, or -1 when unknown.
func (s ProductionStatus) Rank() int {
	for i, candidate := range validProductionStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ActiveProductionStatuses returns the stages that still consume materials.
func ActiveProductionStatuses() []ProductionStatus {
	return []ProductionStatus{
		ProductionStatusNotStarted,
		ProductionStatusCutting,
		ProductionStatusSewing,
		ProductionStatusFinishing,
		ProductionStatusQualityCheck,
	}
}

// ParseProductionStatus converts raw input into a ProductionStatus.
func ParseProductionStatus(value string) (ProductionStatus, error) {
	for _, candidate := range validProductionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid production status %q", value)
}
