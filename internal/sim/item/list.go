package item

import (
	"sort"
	"strconv"
	"strings"
)

// Clone deep-copies a list of stacks. Working copies handed to the matcher
// must never alias catalog or registry data.
func Clone(in []Stack) []Stack {
	if in == nil {
		return nil
	}
	out := make([]Stack, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// Repeat returns n concatenated copies of in.
func Repeat(in []Stack, n int) []Stack {
	out := make([]Stack, 0, len(in)*n)
	for i := 0; i < n; i++ {
		out = append(out, Clone(in)...)
	}
	return out
}

// Total sums the count of every non-empty stack of the given kind.
func Total(in []Stack, kind string) int {
	n := 0
	for _, s := range in {
		if s.IsEmpty() || s.Kind != kind {
			continue
		}
		n += s.Count
	}
	return n
}

// NonEmpty drops empty stacks, keeping order.
func NonEmpty(in []Stack) []Stack {
	out := make([]Stack, 0, len(in))
	for _, s := range in {
		if s.IsEmpty() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Key renders an order-independent identity of a list: stacks are merged by
// exact identity and sorted. Two lists with equal keys hold the same items.
func Key(in []Stack) string {
	merged := map[string]int{}
	for _, s := range in {
		if s.IsEmpty() {
			continue
		}
		merged[s.WithCount(1).String()] += s.Count
	}
	parts := make([]string, 0, len(merged))
	for id, n := range merged {
		parts = append(parts, strings.TrimPrefix(id, "1x")+"="+strconv.Itoa(n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
