package crafting

import "craftguard/internal/sim/item"

// MatchAndConsume greedily consumes required from available, both in place.
// For each available stack in order, every still-required stack it satisfies
// takes min(have, want) off both sides; exhausted stacks are dropped and an
// exhausted available stack stops scanning. Order decides which stacks are
// partially consumed, never whether the match succeeds.
//
// It returns true iff at least one pair matched and required ended up empty.
// A false result is a full rejection; available may still have been consumed.
func MatchAndConsume(available, required *[]item.Stack) (bool, error) {
	if len(*required) == 0 {
		return false, ErrNoItemsToMatch
	}

	want := *required
	matched := 0
	kept := make([]item.Stack, 0, len(*available))
	for _, have := range *available {
		for j := 0; j < len(want); {
			if !have.Matches(want[j]) {
				j++
				continue
			}
			matched++

			n := min(have.Count, want[j].Count)
			have.Count -= n
			want[j].Count -= n
			if want[j].Count == 0 {
				want = append(want[:j], want[j+1:]...)
			} else {
				j++
			}
			if have.Count == 0 {
				break
			}
		}
		if have.Count > 0 {
			kept = append(kept, have)
		}
	}

	*available = kept
	*required = want
	return matched > 0 && len(want) == 0, nil
}
