package recipes

import (
	"fmt"

	"craftguard/internal/sim/item"
)

// Shaped is a recipe whose ingredients sit at fixed grid positions. Each Shape
// row is a string of key characters; a space is an empty cell.
type Shaped struct {
	id      string
	shape   []string
	keys    map[rune]item.Stack
	results []item.Stack
}

func NewShaped(id string, shape []string, keys map[rune]item.Stack, results []item.Stack) (*Shaped, error) {
	if id == "" {
		return nil, fmt.Errorf("shaped recipe: empty id")
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("shaped recipe %s: empty shape", id)
	}
	width := len([]rune(shape[0]))
	cells := 0
	for i, row := range shape {
		rs := []rune(row)
		if len(rs) != width {
			return nil, fmt.Errorf("shaped recipe %s: row %d has width %d, want %d", id, i, len(rs), width)
		}
		for _, c := range rs {
			if c == ' ' {
				continue
			}
			k, ok := keys[c]
			if !ok || k.IsEmpty() {
				return nil, fmt.Errorf("shaped recipe %s: key %q undefined", id, c)
			}
			cells++
		}
	}
	if cells == 0 {
		return nil, fmt.Errorf("shaped recipe %s: no ingredients", id)
	}
	if len(item.NonEmpty(results)) == 0 {
		return nil, fmt.Errorf("shaped recipe %s: no results", id)
	}

	r := &Shaped{
		id:      id,
		shape:   append([]string{}, shape...),
		keys:    make(map[rune]item.Stack, len(keys)),
		results: item.Clone(item.NonEmpty(results)),
	}
	for c, k := range keys {
		r.keys[c] = k.Clone()
	}
	return r, nil
}

func (r *Shaped) ID() string { return r.id }

func (r *Shaped) Width() int  { return len([]rune(r.shape[0])) }
func (r *Shaped) Height() int { return len(r.shape) }

func (r *Shaped) Results() []item.Stack { return item.Clone(r.results) }

// IngredientAt returns the ingredient at (row, col), or item.Air.
func (r *Shaped) IngredientAt(row, col int) item.Stack {
	c := []rune(r.shape[row])[col]
	if c == ' ' {
		return item.Air
	}
	return r.keys[c].Clone()
}

// IngredientList returns one stack per non-empty shape cell, row-major.
func (r *Shaped) IngredientList() []item.Stack {
	var out []item.Stack
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if in := r.IngredientAt(y, x); !in.IsEmpty() {
				out = append(out, in)
			}
		}
	}
	return out
}

// MatchesGrid checks a trimmed grid against the shape and its horizontal mirror.
// Counts are ignored; many iterations share one placed stack per cell.
func (r *Shaped) MatchesGrid(trimmed [][]item.Stack) bool {
	if len(trimmed) != r.Height() {
		return false
	}
	for _, row := range trimmed {
		if len(row) != r.Width() {
			return false
		}
	}
	return r.matches(trimmed, false) || r.matches(trimmed, true)
}

func (r *Shaped) matches(trimmed [][]item.Stack, mirrored bool) bool {
	w := r.Width()
	for y, row := range trimmed {
		for x, cell := range row {
			col := x
			if mirrored {
				col = w - 1 - x
			}
			want := r.IngredientAt(y, col)
			if want.IsEmpty() || cell.IsEmpty() {
				if want.IsEmpty() != cell.IsEmpty() {
					return false
				}
				continue
			}
			if !cell.Matches(want) {
				return false
			}
		}
	}
	return true
}

// Shapeless is matched by its ingredient multiset alone.
type Shapeless struct {
	id          string
	ingredients []item.Stack
	results     []item.Stack
}

func NewShapeless(id string, ingredients, results []item.Stack) (*Shapeless, error) {
	if id == "" {
		return nil, fmt.Errorf("shapeless recipe: empty id")
	}
	ingredients = item.NonEmpty(ingredients)
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("shapeless recipe %s: no ingredients", id)
	}
	if len(item.NonEmpty(results)) == 0 {
		return nil, fmt.Errorf("shapeless recipe %s: no results", id)
	}
	return &Shapeless{
		id:          id,
		ingredients: item.Clone(ingredients),
		results:     item.Clone(item.NonEmpty(results)),
	}, nil
}

func (r *Shapeless) ID() string                   { return r.id }
func (r *Shapeless) IngredientList() []item.Stack { return item.Clone(r.ingredients) }
func (r *Shapeless) Results() []item.Stack        { return item.Clone(r.results) }

// MatchesGrid pairs every non-empty grid cell with one ingredient unit; an
// ingredient stack of count n needs n cells.
func (r *Shapeless) MatchesGrid(trimmed [][]item.Stack) bool {
	var units []item.Stack
	for _, in := range r.ingredients {
		for i := 0; i < in.Count; i++ {
			units = append(units, in.WithCount(1))
		}
	}

	cells := 0
	for _, row := range trimmed {
		for _, cell := range row {
			if cell.IsEmpty() {
				continue
			}
			cells++
			found := -1
			for j, u := range units {
				if cell.Matches(u) {
					found = j
					break
				}
			}
			if found < 0 {
				return false
			}
			units = append(units[:found], units[found+1:]...)
		}
	}
	return cells > 0 && len(units) == 0
}
