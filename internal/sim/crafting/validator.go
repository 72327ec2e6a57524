package crafting

import (
	"errors"
	"io"
	"log"

	"craftguard/internal/sim/item"
)

// Recipe is the read-only view of a registered recipe the validator needs.
// Implementations must return fresh slices or slices the caller may not
// mutate; the validator always clones before consuming.
type Recipe interface {
	ID() string
	IngredientList() []item.Stack
	Results() []item.Stack
}

// Registry finds the recipe for a trimmed grid and the outputs a client
// claims to have produced. Shape and wildcard semantics are its concern.
type Registry interface {
	MatchRecipe(trimmed [][]item.Stack, outputs []item.Stack) (Recipe, bool)
}

// Delta is the net effect of one transaction after squashing and diffing.
type Delta struct {
	Actions int
	Outputs []item.Stack
	Inputs  []item.Stack
}

// State is the point a validation reached.
type State int

const (
	StateCollecting State = iota
	StateMatched
	StateIterationsResolved
	StateInputsVerified
	StateAccepted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "COLLECTING"
	case StateMatched:
		return "MATCHED"
	case StateIterationsResolved:
		return "ITERATIONS_RESOLVED"
	case StateInputsVerified:
		return "INPUTS_VERIFIED"
	case StateAccepted:
		return "ACCEPTED"
	case StateRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

type Result struct {
	Recipe     Recipe
	Iterations int
	State      State
	// Last is the state reached before the terminal one.
	Last State
}

func (r Result) Accepted() bool { return r.State == StateAccepted }

type Validator struct {
	registry      Registry
	maxIterations int
	log           *log.Logger
}

type Option func(*Validator)

func WithMaxIterations(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxIterations = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

func NewValidator(reg Registry, opts ...Option) *Validator {
	v := &Validator{
		registry:      reg,
		maxIterations: MaxIterations,
		log:           log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

func (v *Validator) MaxIterations() int { return v.maxIterations }

// Validate decides whether d is exactly n repetitions of the recipe the
// registry finds for trimmed. It never mutates d, the grid, or registry data.
//
// A refusal is returned as a *Rejection; any other error is a fault.
func (v *Validator) Validate(trimmed [][]item.Stack, d Delta) (Result, error) {
	res := Result{State: StateCollecting}
	reject := func(err error) (Result, error) {
		res.Last = res.State
		res.State = StateRejected
		var r *Rejection
		if errors.As(err, &r) {
			v.log.Printf("reject state=%s reason=%s %s", res.Last, r.Reason, r.Detail)
		}
		return res, err
	}

	if d.Actions < 1 {
		return reject(Reject(ReasonEmptyTransaction, "no actions"))
	}

	outputs := item.NonEmpty(item.Clone(d.Outputs))
	inputs := item.NonEmpty(item.Clone(d.Inputs))

	recipe, ok := v.registry.MatchRecipe(trimmed, outputs)
	if !ok || recipe == nil {
		return reject(Reject(ReasonNoMatchingRecipe, "no recipe for %d-row grid", len(trimmed)))
	}
	res.Recipe = recipe
	res.State = StateMatched

	n, err := ResolveIterations(&outputs, recipe.Results(), v.maxIterations)
	if err != nil {
		return reject(err)
	}
	res.Iterations = n
	res.State = StateIterationsResolved

	ingredients := recipe.IngredientList()
	for i := 0; i < n; i++ {
		want := item.Clone(ingredients)
		ok, err := MatchAndConsume(&inputs, &want)
		if err != nil {
			return reject(err)
		}
		if !ok {
			return reject(Reject(ReasonInsufficientIngredients, "pass %d/%d of %s", i+1, n, recipe.ID()))
		}
	}
	if len(inputs) > 0 {
		return reject(Reject(ReasonUnconsumedInputs, "%d stacks left after %d iterations of %s", len(inputs), n, recipe.ID()))
	}
	res.Last = StateInputsVerified
	res.State = StateAccepted
	v.log.Printf("accept recipe=%s iterations=%d", recipe.ID(), n)
	return res, nil
}
