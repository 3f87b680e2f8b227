package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// StringID identifies an interned string.
type StringID uint32

// NoStringID is reserved for the empty string.
const NoStringID StringID = 0

// Interner maps strings to compact ids. It is filled while a unit is built
// and treated as read-only once the owning graph is frozen.
type Interner struct {
	byID  []string
	index map[string]StringID
}

// NewInterner returns an interner with NoStringID bound to "".
func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern returns the id of s, allocating one if needed.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	cpy := string([]byte(s))
	id := StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Find returns the id of s without interning it.
func (i *Interner) Find(s string) (StringID, bool) {
	id, ok := i.index[s]
	return id, ok
}

// Lookup returns the string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics when id is unknown.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Len counts interned strings including the reserved empty one.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of every interned string indexed by id.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
