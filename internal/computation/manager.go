///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package computation

// manager.go tracks computations by offset so callbacks can be matched to
// the dispatch they answer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/internal/measure"
	"gitlab.com/elixxir/privaterecord/provider"
)

// Manager maps computation offsets to computations. Retired computations
// stay so that a replayed callback is recognised.
type Manager struct {
	computations *sync.Map
}

// NewManager creates a manager with no computations
func NewManager() *Manager {
	return &Manager{computations: &sync.Map{}}
}

// Dispatch records the computation and queues it with the provider. An
// offset already tracked, whether still being admitted or admitted before,
// is refused as a duplicate without asking the provider. Otherwise the
// computation is tracked while the provider decides, so a callback delivered
// during admission finds it. A refusal is returned as a
// *ProviderRejectedError and drops the entry.
func (m *Manager) Dispatch(ctx context.Context, p provider.Provider,
	c *Computation, qc *provider.QueuedComputation) error {
	if _, loaded := m.computations.LoadOrStore(c.offset, c); loaded {
		return &ProviderRejectedError{
			Offset: c.offset,
			Reason: errors.WithMessage(provider.ErrDuplicateOffset,
				"offset already tracked by this node"),
		}
	}

	if err := p.QueueComputation(ctx, qc); err != nil {
		m.computations.CompareAndDelete(c.offset, c)
		return &ProviderRejectedError{Offset: c.offset, Reason: err}
	}

	c.Measure(measure.TagQueuedWithProvider)
	return nil
}

// Get returns the computation at offset, or an error if there is none
func (m *Manager) Get(offset uint64) (*Computation, error) {
	c, ok := m.computations.Load(offset)
	if !ok {
		return nil, errors.Errorf("Could not find computation %d", offset)
	}
	return c.(*Computation), nil
}

// Retire moves the computation at offset to a terminal status. Unknown and
// already retired computations yield ErrAbortedComputation.
func (m *Manager) Retire(offset uint64, to Status) (*Computation, error) {
	c, err := m.Get(offset)
	if err != nil {
		return nil, errors.WithMessage(ErrAbortedComputation, err.Error())
	}
	if !c.Retire(to) {
		return c, errors.WithMessagef(ErrAbortedComputation,
			"computation %d already %s", offset, c.GetStatus())
	}
	return c, nil
}
