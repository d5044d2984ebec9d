///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package computation tracks record lookups from dispatch to their single
// terminal callback. It builds the request handed to the provider and
// verifies the output the provider returns.
package computation

import (
	"sync/atomic"
	"time"

	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/internal/measure"
	"gitlab.com/xx_network/primitives/id"
)

// Computation is one dispatched lookup. It is retired exactly once.
type Computation struct {
	offset    uint64
	address   *id.ID
	requester *id.ID
	record    *id.ID

	status  *uint32
	metrics measure.Metrics
}

// New creates a dispatched computation for the offset on the cluster
func New(offset uint64, clusterOffset uint32, requester, record *id.ID) *Computation {
	status := uint32(DISPATCHED)
	c := &Computation{
		offset:    offset,
		address:   address.ComputationAddress(clusterOffset, offset),
		requester: requester,
		record:    record,
		status:    &status,
	}
	c.metrics.Measure(measure.TagDispatched)
	return c
}

// GetOffset returns the caller chosen computation offset
func (c *Computation) GetOffset() uint64 {
	return c.offset
}

// GetAddress returns the computation account on the cluster
func (c *Computation) GetAddress() *id.ID {
	return c.address
}

// GetRequester returns who dispatched the computation
func (c *Computation) GetRequester() *id.ID {
	return c.requester
}

// GetRecord returns the record account the computation reads
func (c *Computation) GetRecord() *id.ID {
	return c.record
}

// GetStatus returns the current status
func (c *Computation) GetStatus() Status {
	return Status(atomic.LoadUint32(c.status))
}

// Retire moves a dispatched computation to a terminal status. It returns
// false if the computation was already retired.
func (c *Computation) Retire(to Status) bool {
	if to != COMPLETED && to != ABORTED {
		return false
	}
	retired := atomic.CompareAndSwapUint32(c.status, uint32(DISPATCHED),
		uint32(to))
	if retired && to == ABORTED {
		c.metrics.Measure(measure.TagAborted)
	}
	return retired
}

// Measure records a timestamped event for the computation
func (c *Computation) Measure(tag string) time.Time {
	return c.metrics.Measure(tag)
}

// GetMetrics returns the computation's measured events
func (c *Computation) GetMetrics() *measure.Metrics {
	return &c.metrics
}
