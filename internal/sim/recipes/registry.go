// Package recipes is the recipe registry consulted by the crafting validator.
package recipes

import (
	"fmt"
	"sync"

	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/item"
)

// Recipe is a registered recipe that can be tested against a trimmed grid.
type Recipe interface {
	crafting.Recipe
	MatchesGrid(trimmed [][]item.Stack) bool
}

// Registry holds recipes in registration order, indexed by the identity of
// their results. Safe for concurrent lookups once populated.
type Registry struct {
	mu        sync.RWMutex
	byID      map[string]Recipe
	byOutput  map[string][]Recipe
	shaped    []Recipe
	shapeless []Recipe
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     map[string]Recipe{},
		byOutput: map[string][]Recipe{},
	}
}

func (r *Registry) Register(rec Recipe) error {
	if rec == nil {
		return fmt.Errorf("register: nil recipe")
	}
	if len(rec.IngredientList()) == 0 || len(rec.Results()) == 0 {
		return fmt.Errorf("register %s: recipe must have ingredients and results", rec.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[rec.ID()]; dup {
		return fmt.Errorf("register %s: duplicate recipe id", rec.ID())
	}
	r.byID[rec.ID()] = rec
	key := item.Key(rec.Results())
	r.byOutput[key] = append(r.byOutput[key], rec)
	if _, ok := rec.(*Shaped); ok {
		r.shaped = append(r.shaped, rec)
	} else {
		r.shapeless = append(r.shapeless, rec)
	}
	return nil
}

func (r *Registry) Get(id string) (Recipe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	return rec, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// MatchRecipe looks first among recipes whose results are exactly outputs
// (one iteration), then among all recipes, since a multi-iteration craft
// produces a multiple of the results. Shaped recipes are tried first.
func (r *Registry) MatchRecipe(trimmed [][]item.Stack, outputs []item.Stack) (crafting.Recipe, bool) {
	if len(trimmed) == 0 {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if bucket := r.byOutput[item.Key(outputs)]; len(bucket) > 0 {
		if rec := firstMatch(bucket, trimmed, true); rec != nil {
			return rec, true
		}
		if rec := firstMatch(bucket, trimmed, false); rec != nil {
			return rec, true
		}
	}
	if rec := firstMatch(r.shaped, trimmed, true); rec != nil {
		return rec, true
	}
	if rec := firstMatch(r.shapeless, trimmed, false); rec != nil {
		return rec, true
	}
	return nil, false
}

func firstMatch(list []Recipe, trimmed [][]item.Stack, shaped bool) Recipe {
	for _, rec := range list {
		if _, isShaped := rec.(*Shaped); isShaped != shaped {
			continue
		}
		if rec.MatchesGrid(trimmed) {
			return rec
		}
	}
	return nil
}
