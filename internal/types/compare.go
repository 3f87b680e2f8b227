package types

import (
	"cmp"
	"slices"
)

// Equal reports structural equality.
func Equal(a, b Type) bool {
	return Compare(a, b) == 0
}

// Compare is the canonical total order on types: kind, declaration id,
// nullability (non-null first), then arguments and parts lexicographically.
// Intersections are ordered with it so that equal sets yield equal values.
func Compare(a, b Type) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Decl, b.Decl); c != 0 {
		return c
	}
	if a.Nullable != b.Nullable {
		if a.Nullable {
			return 1
		}
		return -1
	}
	if c := slices.CompareFunc(a.Args, b.Args, Compare); c != 0 {
		return c
	}
	return slices.CompareFunc(a.Parts, b.Parts, Compare)
}

// SortCanonical sorts ts in place by Compare.
func SortCanonical(ts []Type) {
	slices.SortFunc(ts, Compare)
}
