package protocol

import "craftguard/internal/sim/crafting"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Transaction layer.
	ErrEmptyTransaction        = "E_EMPTY_TRANSACTION"
	ErrNoMatchingRecipe        = "E_NO_MATCHING_RECIPE"
	ErrUnmatchedOutputs        = "E_UNMATCHED_OUTPUTS"
	ErrTooManyIterations       = "E_TOO_MANY_ITERATIONS"
	ErrInsufficientIngredients = "E_INSUFFICIENT_INGREDIENTS"
	ErrUnconsumedInputs        = "E_UNCONSUMED_INPUTS"
	ErrStale                   = "E_STALE"
	ErrCancelled               = "E_CANCELLED"
	ErrInternal                = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:         {},
	ErrProtoVersion:            {},
	ErrEmptyTransaction:        {},
	ErrNoMatchingRecipe:        {},
	ErrUnmatchedOutputs:        {},
	ErrTooManyIterations:       {},
	ErrInsufficientIngredients: {},
	ErrUnconsumedInputs:        {},
	ErrStale:                   {},
	ErrCancelled:               {},
	ErrInternal:                {},
}

var reasonCodes = map[crafting.Reason]string{
	crafting.ReasonEmptyTransaction:        ErrEmptyTransaction,
	crafting.ReasonNoMatchingRecipe:        ErrNoMatchingRecipe,
	crafting.ReasonUnmatchedOutputs:        ErrUnmatchedOutputs,
	crafting.ReasonTooManyIterations:       ErrTooManyIterations,
	crafting.ReasonInsufficientIngredients: ErrInsufficientIngredients,
	crafting.ReasonUnconsumedInputs:        ErrUnconsumedInputs,
	crafting.ReasonStaleAction:             ErrStale,
	crafting.ReasonCancelled:               ErrCancelled,
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeForReason maps a rejection reason to its wire code. Unknown reasons
// map to E_INTERNAL.
func CodeForReason(r crafting.Reason) string {
	if c, ok := reasonCodes[r]; ok {
		return c
	}
	return ErrInternal
}
