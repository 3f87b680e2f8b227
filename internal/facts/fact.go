// Package facts stores the narrowing facts produced by control-flow analysis
// for one analysed unit. A Store is append-only while it is built and
// immutable once Build returns; multiple facts for the same subject are all
// kept, in insertion order, so that the query engine can merge them.
package facts

import (
	"fmt"

	"smartcast/internal/types"
)

// ExprID identifies an expression slot in the analysed unit.
type ExprID uint32

// ReceiverKind classifies the slot a fact applies to.
type ReceiverKind uint8

const (
	// ReceiverNone means the fact narrows the expression itself.
	ReceiverNone ReceiverKind = iota
	// ReceiverDispatch is the implicit dispatch receiver (this).
	ReceiverDispatch
	// ReceiverExtension is the implicit extension receiver.
	ReceiverExtension
)

func (k ReceiverKind) String() string {
	switch k {
	case ReceiverNone:
		return "none"
	case ReceiverDispatch:
		return "dispatch"
	case ReceiverExtension:
		return "extension"
	default:
		return fmt.Sprintf("ReceiverKind(%d)", k)
	}
}

// ParseReceiverKind maps the textual receiver kind of unit descriptions.
func ParseReceiverKind(s string) (ReceiverKind, error) {
	switch s {
	case "", "none":
		return ReceiverNone, nil
	case "dispatch":
		return ReceiverDispatch, nil
	case "extension":
		return ReceiverExtension, nil
	default:
		return ReceiverNone, fmt.Errorf("invalid receiver kind %q (expected none|dispatch|extension)", s)
	}
}

// Stability tells whether a fact may be surfaced as a smart cast.
type Stability uint8

const (
	// Stable facts come from bindings that cannot change between the check
	// and the use.
	Stable Stability = iota
	// Unstable facts come from mutable or captured state.
	Unstable
)

func (s Stability) String() string {
	if s == Stable {
		return "stable"
	}
	return "unstable"
}

// Subject is the slot a fact narrows: the expression itself, or one of the
// implicit receivers active at it. Depth orders nested receivers, 0 being
// the innermost.
type Subject struct {
	Expr     ExprID
	Receiver ReceiverKind
	Depth    uint16
}

// IsReceiver reports whether the subject is an implicit receiver slot.
func (s Subject) IsReceiver() bool { return s.Receiver != ReceiverNone }

// Fact is a single narrowing: at Subject the value is known to be Type.
type Fact struct {
	Subject   Subject
	Type      types.Type
	Stability Stability
}

// IsStable reports whether the fact is stable.
func (f Fact) IsStable() bool { return f.Stability == Stable }
