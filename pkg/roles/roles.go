package roles

import "github.com/oakandloom/workshop-backend/pkg/enums"

// Capability is a named permission checked by services and middleware. Access
// rules are expressed against capabilities, never against role names, so a
// role's reach is changed by editing its grant set here.
type Capability string

const (
	CapManageOrders       Capability = "orders:manage"
	CapMarkOrderReady     Capability = "orders:mark_ready"
	CapRecordPayments     Capability = "orders:payments"
	CapCancelOrders       Capability = "orders:cancel"
	CapAdvanceProduction  Capability = "production:advance"
	CapOverrideProduction Capability = "production:override"
	CapEscalatePriority   Capability = "queue:escalate"
	CapViewQueue          Capability = "queue:view"
	CapManageStock        Capability = "stock:manage"
	CapResolveAlerts      Capability = "stock:alerts"
	CapAssignTasks        Capability = "tasks:assign"
	CapWorkTasks          Capability = "tasks:work"
	CapReviewTasks        Capability = "tasks:review"
	CapUpdateDelivery     Capability = "delivery:update"
	CapManageUsers        Capability = "users:manage"
	CapViewReports        Capability = "reports:view"
)

// Set is the group of capabilities granted to a role.
type Set map[Capability]struct{}

// Has reports whether the set contains the capability.
func (s Set) Has(cap Capability) bool {
	_, ok := s[cap]
	return ok
}

func newSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

var grants = map[enums.Role]Set{
	enums.RoleOwner: newSet(
		CapManageOrders, CapRecordPayments, CapCancelOrders,
		CapAdvanceProduction, CapOverrideProduction,
		CapEscalatePriority, CapViewQueue,
		CapManageStock, CapResolveAlerts,
		CapAssignTasks, CapWorkTasks, CapReviewTasks,
		CapUpdateDelivery, CapManageUsers, CapViewReports,
	),
	enums.RoleAdmin: newSet(
		CapManageOrders, CapRecordPayments, CapCancelOrders,
		CapAdvanceProduction, CapOverrideProduction,
		CapViewQueue,
		CapManageStock, CapResolveAlerts,
		CapAssignTasks, CapWorkTasks, CapReviewTasks,
		CapUpdateDelivery, CapViewReports,
	),
	enums.RoleWarehouse: newSet(
		CapMarkOrderReady,
		CapAdvanceProduction,
		CapViewQueue,
		CapManageStock,
		CapWorkTasks,
	),
	enums.RoleDelivery: newSet(
		CapViewQueue,
		CapUpdateDelivery,
	),
}

// Can reports whether the role holds the capability.
func Can(role enums.Role, cap Capability) bool {
	set, ok := grants[role]
	if !ok {
		return false
	}
	return set.Has(cap)
}

// For returns the capability set granted to a role. Unknown roles get an
// empty set.
func For(role enums.Role) Set {
	if set, ok := grants[role]; ok {
		return set
	}
	return Set{}
}
