package recipes

import (
	"fmt"
	"unicode/utf8"

	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/item"
)

// FromCatalog registers every catalog recipe in file order.
func FromCatalog(cat catalogs.RecipeCatalog) (*Registry, error) {
	reg := NewRegistry()
	for _, def := range cat.Ordered() {
		rec, err := build(def)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func build(def catalogs.RecipeDef) (Recipe, error) {
	switch def.Type {
	case catalogs.RecipeShaped:
		keys := make(map[rune]item.Stack, len(def.Keys))
		for k, s := range def.Keys {
			if utf8.RuneCountInString(k) != 1 {
				return nil, fmt.Errorf("recipe %s: key %q must be one character", def.RecipeID, k)
			}
			r, _ := utf8.DecodeRuneInString(k)
			keys[r] = s
		}
		return NewShaped(def.RecipeID, def.Shape, keys, def.Results)
	case catalogs.RecipeShapeless:
		return NewShapeless(def.RecipeID, def.Ingredients, def.Results)
	default:
		return nil, fmt.Errorf("recipe %s: unknown type %q", def.RecipeID, def.Type)
	}
}
