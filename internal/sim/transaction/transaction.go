// Package transaction turns raw slot-change actions into the net delta the
// crafting validator consumes.
package transaction

import (
	"errors"
	"fmt"

	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/item"
)

const (
	InventoryPlayer   = "player"
	InventoryCrafting = "crafting"
)

var ErrBrokenChain = errors.New("transaction: slot changes do not chain")

// SlotChange is one client-proposed mutation: slot held Source and should hold Target.
type SlotChange struct {
	Inventory string     `json:"inventory"`
	Slot      int        `json:"slot"`
	Source    item.Stack `json:"source"`
	Target    item.Stack `json:"target"`
}

func (a SlotChange) key() string { return fmt.Sprintf("%s@%d", a.Inventory, a.Slot) }

// SlotReader exposes the live contents of a slot.
type SlotReader interface {
	SlotItem(inventory string, slot int) (item.Stack, bool)
}

// Squash merges every group of actions touching one slot into a single change
// from the live contents to the final target. The chain starts at the action
// whose source equals the live slot (or the first action when cur is nil) and
// follows source==previous target. Groups that do not chain fully fail with
// ErrBrokenChain; a group that ends where it started disappears.
func Squash(actions []SlotChange, cur SlotReader) ([]SlotChange, error) {
	groups := map[string][]int{}
	var order []string
	for i, a := range actions {
		k := a.key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := make([]SlotChange, 0, len(order))
	for _, k := range order {
		idx := groups[k]
		if len(idx) == 1 {
			out = append(out, actions[idx[0]])
			continue
		}

		pending := make([]SlotChange, 0, len(idx))
		for _, i := range idx {
			pending = append(pending, actions[i])
		}

		start := 0
		if cur != nil {
			live, ok := cur.SlotItem(pending[0].Inventory, pending[0].Slot)
			if !ok {
				return nil, fmt.Errorf("%w: %s has no live slot", ErrBrokenChain, k)
			}
			start = -1
			for j, a := range pending {
				if a.Source.Same(live) {
					start = j
					break
				}
			}
			if start < 0 {
				return nil, fmt.Errorf("%w: no change to %s starts from %s", ErrBrokenChain, k, live)
			}
		}

		first := pending[start]
		last := first.Target
		pending = append(pending[:start], pending[start+1:]...)
		for len(pending) > 0 {
			next := -1
			for j, a := range pending {
				if a.Source.Same(last) {
					next = j
					break
				}
			}
			if next < 0 {
				return nil, fmt.Errorf("%w: %d changes to %s left unchained", ErrBrokenChain, len(pending), k)
			}
			last = pending[next].Target
			pending = append(pending[:next], pending[next+1:]...)
		}

		if first.Source.Same(last) {
			continue
		}
		out = append(out, SlotChange{Inventory: first.Inventory, Slot: first.Slot, Source: first.Source, Target: last})
	}
	return out, nil
}

// Diff splits actions into produced (targets) and consumed (sources) items and
// cancels quantities present on both sides.
func Diff(actions []SlotChange) crafting.Delta {
	var outputs, inputs []item.Stack
	for _, a := range actions {
		if !a.Target.IsEmpty() {
			outputs = append(outputs, a.Target.Clone())
		}
		if !a.Source.IsEmpty() {
			inputs = append(inputs, a.Source.Clone())
		}
	}

	for i := range outputs {
		for j := range inputs {
			if outputs[i].Count == 0 {
				break
			}
			if inputs[j].Count == 0 || !outputs[i].Equal(inputs[j]) {
				continue
			}
			n := min(outputs[i].Count, inputs[j].Count)
			outputs[i].Count -= n
			inputs[j].Count -= n
		}
	}

	return crafting.Delta{
		Actions: len(actions),
		Outputs: item.NonEmpty(outputs),
		Inputs:  item.NonEmpty(inputs),
	}
}

// Build squashes then diffs. The squashed actions are returned for execution.
func Build(actions []SlotChange, cur SlotReader) ([]SlotChange, crafting.Delta, error) {
	squashed, err := Squash(actions, cur)
	if err != nil {
		return nil, crafting.Delta{}, err
	}
	return squashed, Diff(squashed), nil
}
