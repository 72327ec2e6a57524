package transaction

import (
	"errors"
	"testing"

	"craftguard/internal/sim/item"
)

type slots map[string]item.Stack

func (s slots) SlotItem(inv string, slot int) (item.Stack, bool) {
	v, ok := s[SlotChange{Inventory: inv, Slot: slot}.key()]
	return v, ok
}

func change(inv string, slot int, src, dst item.Stack) SlotChange {
	return SlotChange{Inventory: inv, Slot: slot, Source: src, Target: dst}
}

func TestDiff_TorchCraft(t *testing.T) {
	actions := []SlotChange{
		change(InventoryCrafting, 0, item.New("COAL", 0, 2), item.Air),
		change(InventoryCrafting, 2, item.New("STICK", 0, 4), item.Air),
		change(InventoryPlayer, 5, item.Air, item.New("TORCH", 0, 8)),
	}
	d := Diff(actions)
	if d.Actions != 3 {
		t.Fatalf("actions=%d", d.Actions)
	}
	if len(d.Outputs) != 1 || d.Outputs[0].Count != 8 {
		t.Fatalf("outputs=%v", d.Outputs)
	}
	if item.Total(d.Inputs, "COAL") != 2 || item.Total(d.Inputs, "STICK") != 4 {
		t.Fatalf("inputs=%v", d.Inputs)
	}
}

func TestDiff_PartialConsumptionNetsOut(t *testing.T) {
	// 5 sticks become 1: 4 consumed.
	d := Diff([]SlotChange{change(InventoryCrafting, 1, item.New("STICK", 0, 5), item.New("STICK", 0, 1))})
	if len(d.Outputs) != 0 {
		t.Fatalf("outputs should cancel, got %v", d.Outputs)
	}
	if len(d.Inputs) != 1 || d.Inputs[0].Count != 4 {
		t.Fatalf("inputs=%v", d.Inputs)
	}
}

func TestDiff_DifferentDamageDoesNotCancel(t *testing.T) {
	d := Diff([]SlotChange{change(InventoryPlayer, 0, item.New("PLANK", 1, 2), item.New("PLANK", 2, 2))})
	if len(d.Outputs) != 1 || len(d.Inputs) != 1 {
		t.Fatalf("expected both sides kept: out=%v in=%v", d.Outputs, d.Inputs)
	}
}

func TestSquash_ChainsFromLiveSlot(t *testing.T) {
	live := slots{"player@3": item.Air}
	actions := []SlotChange{
		change(InventoryPlayer, 3, item.New("TORCH", 0, 4), item.New("TORCH", 0, 8)),
		change(InventoryPlayer, 3, item.Air, item.New("TORCH", 0, 4)),
		change(InventoryCrafting, 0, item.New("COAL", 0, 2), item.Air),
	}
	out, err := Squash(actions, live)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len=%d want 2: %v", len(out), out)
	}
	if out[0].Inventory != InventoryPlayer || !out[0].Source.IsEmpty() || out[0].Target.Count != 8 {
		t.Fatalf("unexpected squashed change %+v", out[0])
	}
	if out[1].Inventory != InventoryCrafting {
		t.Fatalf("order not preserved: %+v", out)
	}
}

func TestSquash_RoundTripVanishes(t *testing.T) {
	actions := []SlotChange{
		change(InventoryPlayer, 0, item.New("LOG", 0, 1), item.Air),
		change(InventoryPlayer, 0, item.Air, item.New("LOG", 0, 1)),
	}
	out, err := Squash(actions, nil)
	if err != nil {
		t.Fatalf("Squash: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no-op group to vanish, got %v", out)
	}
}

func TestSquash_BrokenChain(t *testing.T) {
	actions := []SlotChange{
		change(InventoryPlayer, 0, item.Air, item.New("TORCH", 0, 4)),
		change(InventoryPlayer, 0, item.New("TORCH", 0, 5), item.New("TORCH", 0, 9)),
	}
	if _, err := Squash(actions, nil); !errors.Is(err, ErrBrokenChain) {
		t.Fatalf("expected ErrBrokenChain, got %v", err)
	}

	live := slots{"player@0": item.New("DIAMOND", 0, 1)}
	if _, err := Squash(actions, live); !errors.Is(err, ErrBrokenChain) {
		t.Fatalf("expected ErrBrokenChain for stale chain, got %v", err)
	}
}

func TestBuild(t *testing.T) {
	actions := []SlotChange{
		change(InventoryCrafting, 0, item.New("PLANK", 0, 2), item.New("PLANK", 0, 1)),
		change(InventoryCrafting, 2, item.New("PLANK", 0, 2), item.New("PLANK", 0, 1)),
		change(InventoryPlayer, 0, item.Air, item.New("STICK", 0, 4)),
	}
	squashed, d, err := Build(actions, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(squashed) != 3 || d.Actions != 3 {
		t.Fatalf("squashed=%d actions=%d", len(squashed), d.Actions)
	}
	if item.Total(d.Inputs, "PLANK") != 2 || item.Total(d.Outputs, "STICK") != 4 || item.Total(d.Outputs, "PLANK") != 0 {
		t.Fatalf("delta=%+v", d)
	}
}
