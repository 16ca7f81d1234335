package enums

import "fmt"

// PaymentStatus tracks how much of an order has been paid.
type PaymentStatus string

const (
	PaymentStatusDepositPending PaymentStatus = "deposit_pending"
	PaymentStatusDepositPaid    PaymentStatus = "deposit_paid"
	PaymentStatusFullyPaid      PaymentStatus = "fully_paid"
	PaymentStatusOverdue        PaymentStatus = "overdue"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusDepositPending,
	PaymentStatusDepositPaid,
	PaymentStatusFullyPaid,
	PaymentStatusOverdue,
}

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// DepositCleared reports whether the status means the deposit has been received.
func (s PaymentStatus) DepositCleared() bool {
	return s == PaymentStatusDepositPaid || s == PaymentStatusFullyPaid
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
