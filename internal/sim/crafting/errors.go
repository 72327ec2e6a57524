package crafting

import (
	"errors"
	"fmt"
)

// Reason classifies why a crafting transaction was refused.
type Reason string

const (
	ReasonEmptyTransaction        Reason = "EMPTY_TRANSACTION"
	ReasonNoMatchingRecipe        Reason = "NO_MATCHING_RECIPE"
	ReasonUnmatchedOutputs        Reason = "UNMATCHED_OUTPUTS"
	ReasonTooManyIterations       Reason = "TOO_MANY_ITERATIONS"
	ReasonInsufficientIngredients Reason = "INSUFFICIENT_INGREDIENTS"
	ReasonUnconsumedInputs        Reason = "UNCONSUMED_INPUTS"

	// Raised by the session, outside the validator.
	ReasonStaleAction Reason = "STALE_ACTION"
	ReasonCancelled   Reason = "CANCELLED"
)

// ErrNoItemsToMatch is a contract fault: the matcher was handed nothing to
// match. It is never a client rejection.
var ErrNoItemsToMatch = errors.New("crafting: no items to match")

// Rejection is the expected outcome for an untrusted transaction that does not
// describe a valid craft.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return "crafting rejected: " + string(r.Reason)
	}
	return fmt.Sprintf("crafting rejected: %s: %s", r.Reason, r.Detail)
}

func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf returns the rejection reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}

// IsRejection distinguishes ordinary refusals from faults.
func IsRejection(err error) bool {
	_, ok := ReasonOf(err)
	return ok
}
