package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"craftguard/internal/sim/item"
	"craftguard/schemas"
)

type Catalogs struct {
	Items   ItemCatalog
	Recipes RecipeCatalog
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	MaxStack int    `json:"max_stack,omitempty"`
}

type RecipeCatalog struct {
	ByID map[string]RecipeDef
	// Order is the file order; registration follows it.
	Order  []string
	Digest string
}

const (
	RecipeShaped    = "SHAPED"
	RecipeShapeless = "SHAPELESS"
)

type RecipeDef struct {
	RecipeID    string                `json:"recipe_id"`
	Type        string                `json:"type"`
	Shape       []string              `json:"shape,omitempty"`
	Keys        map[string]item.Stack `json:"keys,omitempty"`
	Ingredients []item.Stack          `json:"ingredients,omitempty"`
	Results     []item.Stack          `json:"results"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Items, &c.Recipes); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseItems(raw, out)
}

func parseItems(raw []byte, out *ItemCatalog) error {
	if err := schemas.Validate(schemas.Items, raw); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		if d.MaxStack == 0 {
			d.MaxStack = 64
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		if id == item.KindAir {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// AIR is always palette id 0.
	ids = append([]string{item.KindAir}, ids...)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadRecipes(path string, items *ItemCatalog, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseRecipes(raw, items, out)
}

func parseRecipes(raw []byte, items *ItemCatalog, out *RecipeCatalog) error {
	if err := schemas.Validate(schemas.Recipes, raw); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.ByID = map[string]RecipeDef{}
	out.Order = out.Order[:0]
	for _, r := range defs {
		if _, dup := out.ByID[r.RecipeID]; dup {
			return fmt.Errorf("recipes.json: duplicate recipe_id %s", r.RecipeID)
		}
		r.Ingredients = normalizeStacks(r.Ingredients)
		r.Results = normalizeStacks(r.Results)
		for k, s := range r.Keys {
			r.Keys[k] = normalizeStack(s)
		}
		if err := checkKnown(items, r); err != nil {
			return fmt.Errorf("recipes.json: %s: %w", r.RecipeID, err)
		}
		out.ByID[r.RecipeID] = r
		out.Order = append(out.Order, r.RecipeID)
	}
	return nil
}

// Ordered returns recipe definitions in file order.
func (c RecipeCatalog) Ordered() []RecipeDef {
	out := make([]RecipeDef, 0, len(c.Order))
	for _, id := range c.Order {
		out = append(out, c.ByID[id])
	}
	return out
}

func normalizeStack(s item.Stack) item.Stack {
	if s.Count == 0 {
		s.Count = 1
	}
	return s
}

func normalizeStacks(in []item.Stack) []item.Stack {
	for i := range in {
		in[i] = normalizeStack(in[i])
	}
	return in
}

func checkKnown(items *ItemCatalog, r RecipeDef) error {
	check := func(s item.Stack) error {
		if items == nil || items.Defs == nil {
			return nil
		}
		if _, ok := items.Defs[s.Kind]; !ok {
			return fmt.Errorf("unknown item %s", s.Kind)
		}
		return nil
	}
	all := append(append([]item.Stack{}, r.Ingredients...), r.Results...)
	for _, s := range r.Keys {
		all = append(all, s)
	}
	for _, s := range all {
		if err := check(s); err != nil {
			return err
		}
	}
	return nil
}
