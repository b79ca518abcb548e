package service_test

import (
	"testing"

	"github.com/mealdesk/api/internal/service"
)

func TestFingerprint_Deterministic(t *testing.T) {
	items := []service.SubmitOrderItemRequest{
		{MenuItemID: "aaa", Quantity: 2},
		{MenuItemID: "bbb", Quantity: 1},
	}

	a := service.Fingerprint("CASH", "no onions", items)
	b := service.Fingerprint("CASH", "no onions", items)
	if a != b {
		t.Error("identical content must hash identically")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got %d chars", len(a))
	}
}

func TestFingerprint_ItemOrderIrrelevant(t *testing.T) {
	a := service.Fingerprint("CASH", "", []service.SubmitOrderItemRequest{
		{MenuItemID: "aaa", Quantity: 2},
		{MenuItemID: "bbb", Quantity: 1},
	})
	b := service.Fingerprint("CASH", "", []service.SubmitOrderItemRequest{
		{MenuItemID: "bbb", Quantity: 1},
		{MenuItemID: "aaa", Quantity: 2},
	})
	if a != b {
		t.Error("item order must not affect the fingerprint")
	}
}

func TestFingerprint_NormalizesPaymentAndNotes(t *testing.T) {
	items := []service.SubmitOrderItemRequest{{MenuItemID: "aaa", Quantity: 1}}

	if service.Fingerprint("cash", "hello", items) != service.Fingerprint("  CASH ", "hello", items) {
		t.Error("payment method casing and padding must not affect the fingerprint")
	}
	if service.Fingerprint("CASH", " hello ", items) != service.Fingerprint("CASH", "hello", items) {
		t.Error("note padding must not affect the fingerprint")
	}
}

func TestFingerprint_ContentChangesHash(t *testing.T) {
	base := service.Fingerprint("CASH", "", []service.SubmitOrderItemRequest{{MenuItemID: "aaa", Quantity: 1}})

	if base == service.Fingerprint("CASH", "", []service.SubmitOrderItemRequest{{MenuItemID: "aaa", Quantity: 2}}) {
		t.Error("quantity change must change the fingerprint")
	}
	if base == service.Fingerprint("TRANSFER", "", []service.SubmitOrderItemRequest{{MenuItemID: "aaa", Quantity: 1}}) {
		t.Error("payment method change must change the fingerprint")
	}
	if base == service.Fingerprint("CASH", "extra rice", []service.SubmitOrderItemRequest{{MenuItemID: "aaa", Quantity: 1}}) {
		t.Error("notes change must change the fingerprint")
	}
}
