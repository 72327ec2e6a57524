package main

import (
	"testing"

	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/item"
	"craftguard/internal/sim/recipes"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/transaction"
)

func testValidator(t *testing.T) *crafting.Validator {
	t.Helper()
	torch, err := recipes.NewShaped("torch", []string{"C", "S"}, map[rune]item.Stack{
		'C': item.New("COAL", item.AnyDamage, 1),
		'S': item.New("STICK", 0, 1),
	}, []item.Stack{item.New("TORCH", 0, 4)})
	if err != nil {
		t.Fatalf("NewShaped: %v", err)
	}
	reg := recipes.NewRegistry()
	if err := reg.Register(torch); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return crafting.NewValidator(reg)
}

func torchEntry(torches int) session.AuditEntry {
	return session.AuditEntry{
		TxID:      "t1",
		GridWidth: 2,
		Grid:      []item.Stack{item.New("COAL", 0, 1), item.Air, item.New("STICK", 0, 1), item.Air},
		Actions: []transaction.SlotChange{
			{Inventory: transaction.InventoryCrafting, Slot: 0, Source: item.New("COAL", 0, 1), Target: item.Air},
			{Inventory: transaction.InventoryCrafting, Slot: 2, Source: item.New("STICK", 0, 1), Target: item.Air},
			{Inventory: transaction.InventoryPlayer, Slot: 0, Source: item.Air, Target: item.New("TORCH", 0, torches)},
		},
	}
}

func TestVerifyEntry(t *testing.T) {
	v := testValidator(t)

	ok := torchEntry(4)
	ok.Accepted = true
	ok.RecipeID = "torch"
	if res := verifyEntry(v, ok); !res.OK || res.Skipped {
		t.Fatalf("accepted entry: %+v", res)
	}

	rejected := torchEntry(8)
	rejected.Reason = string(crafting.ReasonInsufficientIngredients)
	if res := verifyEntry(v, rejected); !res.OK {
		t.Fatalf("rejected entry: %+v", res)
	}

	cancelled := torchEntry(4)
	cancelled.Reason = string(crafting.ReasonCancelled)
	if res := verifyEntry(v, cancelled); !res.OK {
		t.Fatalf("cancelled entry: %+v", res)
	}

	tampered := torchEntry(8)
	tampered.Accepted = true
	tampered.RecipeID = "torch"
	if res := verifyEntry(v, tampered); res.OK || res.Replayed != string(crafting.ReasonInsufficientIngredients) {
		t.Fatalf("tampered entry should mismatch: %+v", res)
	}

	stale := torchEntry(4)
	stale.Reason = string(crafting.ReasonStaleAction)
	if res := verifyEntry(v, stale); !res.Skipped {
		t.Fatalf("stale entry should be skipped: %+v", res)
	}
}
