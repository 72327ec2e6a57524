package item

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Damage is an item damage/meta value. AnyDamage on the required side of a
// match accepts every damage value.
type Damage int32

const AnyDamage Damage = -1

// KindAir is the item id of the empty slot sentinel.
const KindAir = "AIR"

// Air is what an empty slot holds. It is never a zero-count stack of a real item.
var Air = Stack{Kind: KindAir}

type Stack struct {
	Kind   string `json:"item"`
	Damage Damage `json:"damage,omitempty"`
	Count  int    `json:"count"`
	// Tag is opaque tag data; nil means the stack carries none.
	Tag []byte `json:"tag,omitempty"`
}

func New(kind string, damage Damage, count int) Stack {
	return Stack{Kind: kind, Damage: damage, Count: count}
}

func (s Stack) IsEmpty() bool {
	return s.Kind == "" || s.Kind == KindAir || s.Count <= 0
}

func (s Stack) HasAnyDamage() bool { return s.Damage == AnyDamage }

func (s Stack) HasTag() bool { return s.Tag != nil }

// Matches reports whether s satisfies required. The predicate is asymmetric:
// only the wildcard damage and tag presence of required are consulted.
func (s Stack) Matches(required Stack) bool {
	if s.Kind != required.Kind {
		return false
	}
	if !required.HasAnyDamage() && s.Damage != required.Damage {
		return false
	}
	if required.HasTag() && !bytes.Equal(s.Tag, required.Tag) {
		return false
	}
	return true
}

// Equal is exact identity ignoring count.
func (s Stack) Equal(o Stack) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return s.IsEmpty() && o.IsEmpty()
	}
	return s.Kind == o.Kind && s.Damage == o.Damage && bytes.Equal(s.Tag, o.Tag) && s.HasTag() == o.HasTag()
}

// Same is Equal plus an equal count.
func (s Stack) Same(o Stack) bool {
	if s.IsEmpty() && o.IsEmpty() {
		return true
	}
	return s.Equal(o) && s.Count == o.Count
}

func (s Stack) WithCount(n int) Stack {
	out := s.Clone()
	out.Count = n
	return out
}

func (s Stack) Clone() Stack {
	out := s
	if s.Tag != nil {
		out.Tag = append([]byte{}, s.Tag...)
	}
	return out
}

func (s Stack) String() string {
	if s.IsEmpty() {
		return KindAir
	}
	d := fmt.Sprintf("%d", s.Damage)
	if s.HasAnyDamage() {
		d = "*"
	}
	if s.HasTag() {
		return fmt.Sprintf("%dx%s:%s{%s}", s.Count, s.Kind, d, hex.EncodeToString(s.Tag))
	}
	return fmt.Sprintf("%dx%s:%s", s.Count, s.Kind, d)
}
