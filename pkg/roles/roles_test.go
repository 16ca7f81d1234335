package roles

import (
	"testing"

	"github.com/oakandloom/workshop-backend/pkg/enums"
)

func TestOnlyOwnerEscalatesPriority(t *testing.T) {
	if !Can(enums.RoleOwner, CapEscalatePriority) {
		t.Fatal("owner should escalate priority")
	}
	for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleWarehouse, enums.RoleDelivery} {
		if Can(role, CapEscalatePriority) {
			t.Fatalf("role %s should not escalate priority", role)
		}
	}
}

func TestManagerCapabilities(t *testing.T) {
	for _, role := range []enums.Role{enums.RoleOwner, enums.RoleAdmin} {
		for _, cap := range []Capability{CapManageOrders, CapOverrideProduction, CapReviewTasks, CapCancelOrders} {
			if !Can(role, cap) {
				t.Fatalf("role %s should hold %s", role, cap)
			}
		}
	}
}

func TestWarehouseScope(t *testing.T) {
	if !Can(enums.RoleWarehouse, CapWorkTasks) {
		t.Fatal("warehouse should work tasks")
	}
	if !Can(enums.RoleWarehouse, CapManageStock) {
		t.Fatal("warehouse should manage stock")
	}
	if Can(enums.RoleWarehouse, CapReviewTasks) {
		t.Fatal("warehouse should not review tasks")
	}
	if Can(enums.RoleWarehouse, CapManageOrders) {
		t.Fatal("warehouse should not manage orders")
	}
}

func TestDeliveryScope(t *testing.T) {
	if !Can(enums.RoleDelivery, CapUpdateDelivery) {
		t.Fatal("delivery should update delivery status")
	}
	if Can(enums.RoleDelivery, CapManageStock) {
		t.Fatal("delivery should not manage stock")
	}
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	if Can(enums.Role("ghost"), CapViewQueue) {
		t.Fatal("unknown roles should hold nothing")
	}
	if len(For(enums.Role("ghost"))) != 0 {
		t.Fatal("unknown role set should be empty")
	}
}
