package facts

import (
	"cmp"
	"fmt"
	"slices"
)

// ReceiverSlot groups the facts recorded for one implicit receiver of an
// expression.
type ReceiverSlot struct {
	Kind  ReceiverKind
	Depth uint16
	Facts []Fact
}

type receiverKey struct {
	kind  ReceiverKind
	depth uint16
}

// StoreBuilder collects facts. It is not safe for concurrent use.
type StoreBuilder struct {
	exprs     map[ExprID][]Fact
	receivers map[ExprID]map[receiverKey][]Fact
	count     int
	built     bool
}

// NewStoreBuilder returns an empty builder.
func NewStoreBuilder() *StoreBuilder {
	return &StoreBuilder{
		exprs:     make(map[ExprID][]Fact),
		receivers: make(map[ExprID]map[receiverKey][]Fact),
	}
}

// Add appends a fact. Facts are never overwritten.
func (b *StoreBuilder) Add(f Fact) error {
	if b.built {
		return fmt.Errorf("facts: store already built")
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("facts: fact for expression %d has no type", f.Subject.Expr)
	}
	if f.Subject.IsReceiver() {
		slots := b.receivers[f.Subject.Expr]
		if slots == nil {
			slots = make(map[receiverKey][]Fact, 1)
			b.receivers[f.Subject.Expr] = slots
		}
		key := receiverKey{kind: f.Subject.Receiver, depth: f.Subject.Depth}
		slots[key] = append(slots[key], f)
	} else {
		b.exprs[f.Subject.Expr] = append(b.exprs[f.Subject.Expr], f)
	}
	b.count++
	return nil
}

// Build freezes the collected facts into a Store.
func (b *StoreBuilder) Build() *Store {
	b.built = true
	st := &Store{
		exprs:     b.exprs,
		receivers: make(map[ExprID][]ReceiverSlot, len(b.receivers)),
		count:     b.count,
	}
	for expr, slots := range b.receivers {
		list := make([]ReceiverSlot, 0, len(slots))
		for key, fs := range slots {
			list = append(list, ReceiverSlot{Kind: key.kind, Depth: key.depth, Facts: fs})
		}
		slices.SortFunc(list, func(a, b ReceiverSlot) int {
			if c := cmp.Compare(a.Depth, b.Depth); c != 0 {
				return c
			}
			return cmp.Compare(a.Kind, b.Kind)
		})
		st.receivers[expr] = list
	}
	b.exprs, b.receivers = nil, nil
	return st
}

// Store is the immutable fact table of one snapshot. Returned slices are
// shared with the store and must not be modified.
type Store struct {
	exprs     map[ExprID][]Fact
	receivers map[ExprID][]ReceiverSlot
	count     int
}

// Expression returns every fact recorded for the expression itself.
func (s *Store) Expression(expr ExprID) []Fact {
	if s == nil {
		return nil
	}
	return s.exprs[expr]
}

// Receivers returns the implicit receiver slots of expr, innermost first.
func (s *Store) Receivers(expr ExprID) []ReceiverSlot {
	if s == nil {
		return nil
	}
	return s.receivers[expr]
}

// Len reports the total number of facts.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Exprs returns the expressions that carry facts (on themselves or on
// their receivers) in ascending order.
func (s *Store) Exprs() []ExprID {
	if s == nil {
		return nil
	}
	out := make([]ExprID, 0, len(s.exprs)+len(s.receivers))
	for id := range s.exprs {
		out = append(out, id)
	}
	for id := range s.receivers {
		if _, dup := s.exprs[id]; !dup {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
