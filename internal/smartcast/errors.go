package smartcast

import (
	"fmt"

	"smartcast/internal/facts"
)

// InvariantError reports stable facts for one subject that have no common
// type. Upstream analysis should never produce them; the query that hit it
// fails, other queries are unaffected.
type InvariantError struct {
	Expr     facts.ExprID
	Receiver facts.ReceiverKind
	Depth    uint16
	Err      error
}

func (e *InvariantError) Error() string {
	if e.Receiver != facts.ReceiverNone {
		return fmt.Sprintf("inconsistent narrowing facts for %s receiver #%d of expression %d: %v", e.Receiver, e.Depth, e.Expr, e.Err)
	}
	return fmt.Sprintf("inconsistent narrowing facts for expression %d: %v", e.Expr, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }
