// Package binding publishes resolved units to the query engine.
//
// The resolution pipeline builds a declaration graph and a fact store, then
// publishes them through a Session. Publishing advances the session epoch
// exactly once; every query names the epoch it was issued against and is
// refused with ErrStaleSnapshot as soon as that epoch is no longer current.
package binding

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"smartcast/internal/decls"
	"smartcast/internal/facts"
)

// Epoch is the validity counter of a session. Zero means "nothing published".
type Epoch uint64

// ErrStaleSnapshot reports a query issued against an epoch that is no
// longer current.
var ErrStaleSnapshot = errors.New("stale snapshot")

// Provider is the read side consumed by the query engine and checkers.
type Provider interface {
	CurrentEpoch() Epoch
	Acquire(epoch Epoch) (*Snapshot, error)
}

// Snapshot is one published, immutable view of a unit.
type Snapshot struct {
	ID    uuid.UUID
	Epoch Epoch
	graph *decls.Graph
	store *facts.Store
}

// Graph returns the declaration graph.
func (s *Snapshot) Graph() *decls.Graph { return s.graph }

// Store returns the fact store.
func (s *Snapshot) Store() *facts.Store { return s.store }

// Facts returns the facts recorded for the expression itself.
func (s *Snapshot) Facts(expr facts.ExprID) []facts.Fact { return s.store.Expression(expr) }

// Receivers returns the implicit receiver slots of expr, innermost first.
func (s *Snapshot) Receivers(expr facts.ExprID) []facts.ReceiverSlot {
	return s.store.Receivers(expr)
}

// Session owns the epoch counter and the current snapshot of one unit.
// All methods are safe for concurrent use; writers are serialised, readers
// never block.
type Session struct {
	mu      sync.Mutex
	epoch   atomic.Uint64
	current atomic.Pointer[Snapshot]
}

// NewSession returns a session with nothing published.
func NewSession() *Session {
	return &Session{}
}

// Publish installs a fully built graph and store as the current snapshot
// and returns it. Earlier epochs become stale.
func (s *Session) Publish(g *decls.Graph, st *facts.Store) *Snapshot {
	if st == nil {
		st = facts.NewStoreBuilder().Build()
	}
	snap := &Snapshot{ID: uuid.New(), graph: g, store: st}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the snapshot is stored before the epoch is advanced, so a reader that
	// observes the new epoch also observes the new snapshot
	snap.Epoch = Epoch(s.epoch.Load() + 1)
	s.current.Store(snap)
	s.epoch.Store(uint64(snap.Epoch))
	return snap
}

// Invalidate advances the epoch without publishing new data, e.g. when the
// source changed and re-resolution has not finished yet.
func (s *Session) Invalidate() Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Epoch(s.epoch.Add(1))
}

// CurrentEpoch returns the current epoch.
func (s *Session) CurrentEpoch() Epoch {
	return Epoch(s.epoch.Load())
}

// Acquire returns the snapshot published at epoch, or ErrStaleSnapshot.
func (s *Session) Acquire(epoch Epoch) (*Snapshot, error) {
	if cur := s.CurrentEpoch(); cur != epoch {
		return nil, fmt.Errorf("%w: epoch %d, current %d", ErrStaleSnapshot, epoch, cur)
	}
	snap := s.current.Load()
	if snap == nil || snap.Epoch != epoch {
		return nil, fmt.Errorf("%w: epoch %d has no published snapshot", ErrStaleSnapshot, epoch)
	}
	return snap, nil
}

// Validate fails with ErrStaleSnapshot when epoch stopped being current.
// Queries call it after reading to refuse results computed across an
// invalidation.
func Validate(p Provider, epoch Epoch) error {
	if cur := p.CurrentEpoch(); cur != epoch {
		return fmt.Errorf("%w: epoch %d invalidated (current %d)", ErrStaleSnapshot, epoch, cur)
	}
	return nil
}
