package session

import (
	"fmt"

	"craftguard/internal/sim/item"
)

// Inventory is a fixed-size slot store. It is not safe for concurrent use;
// the owning Session serializes access.
type Inventory struct {
	slots []item.Stack
}

func NewInventory(size int) *Inventory {
	inv := &Inventory{slots: make([]item.Stack, size)}
	for i := range inv.slots {
		inv.slots[i] = item.Air
	}
	return inv
}

func (inv *Inventory) Size() int { return len(inv.slots) }

func (inv *Inventory) Item(slot int) (item.Stack, bool) {
	if slot < 0 || slot >= len(inv.slots) {
		return item.Air, false
	}
	return inv.slots[slot].Clone(), true
}

func (inv *Inventory) SetItem(slot int, s item.Stack) error {
	if slot < 0 || slot >= len(inv.slots) {
		return fmt.Errorf("inventory: slot %d out of range", slot)
	}
	if s.IsEmpty() {
		s = item.Air
	}
	inv.slots[slot] = s.Clone()
	return nil
}

func (inv *Inventory) Contents() []item.Stack { return item.Clone(inv.slots) }
