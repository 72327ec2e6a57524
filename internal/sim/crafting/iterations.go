package crafting

import "craftguard/internal/sim/item"

// MaxIterations is the most repetitions of one recipe a single transaction may
// claim (one recipe-book shift-click).
const MaxIterations = 64

// ResolveIterations counts how many whole batches of results explain outputs.
// Each pass matches a fresh copy of results against what is left of outputs;
// outputs is consumed in place and is empty on success.
func ResolveIterations(outputs *[]item.Stack, results []item.Stack, ceiling int) (int, error) {
	if ceiling <= 0 {
		ceiling = MaxIterations
	}
	iterations := 0
	for {
		iterations++
		if iterations > ceiling {
			return 0, Reject(ReasonTooManyIterations, "more than %d repetitions", ceiling)
		}

		want := item.Clone(results)
		ok, err := MatchAndConsume(outputs, &want)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, Reject(ReasonUnmatchedOutputs, "pass %d left %d result stacks unmatched", iterations, len(want))
		}
		if len(*outputs) == 0 {
			return iterations, nil
		}
	}
}
