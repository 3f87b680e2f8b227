package typeops

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoCommonType reports that the inputs of an intersection are
	// provably disjoint.
	ErrNoCommonType = errors.New("no common type")
	// ErrEmptyInput reports an intersection over zero types.
	ErrEmptyInput = errors.New("empty intersection input")
	// ErrCancelled reports that a traversal observed cancellation. It wraps
	// the context error so errors.Is(err, context.Canceled) also holds.
	ErrCancelled = errors.New("cancelled")
)

// checkCancel returns a wrapped ErrCancelled once ctx is done.
func checkCancel(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// CheckCancel exposes the cancellation check to sibling packages that run
// traversals over the same graphs.
func CheckCancel(ctx context.Context) error {
	return checkCancel(ctx)
}
