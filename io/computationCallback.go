///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

// computationCallback.go contains the handler for ComputationCallback

import (
	"bytes"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/elixxir/privaterecord/internal/measure"
	"gitlab.com/elixxir/privaterecord/provider"
)

// ReceiveComputationCallback verifies a cluster's output for a dispatched
// computation and emits it as an event.
//
// Callbacks are authenticated by the cluster's signature, not the sender.
// An output that fails authentication is refused without touching the
// computation. An authentic abort, or an authentic output of the wrong
// shape, retires the computation as aborted. Each computation is retired
// once; later callbacks for it are refused.
func ReceiveComputationCallback(instance *internal.Instance, offset uint64,
	output []byte, _ *comms.Auth) error {
	jww.INFO.Printf("[%v]: ComputationCallback %d START", instance, offset)

	manager := instance.GetComputationManager()
	c, err := manager.Get(offset)
	if err != nil {
		jww.WARN.Printf("[%v]: ComputationCallback %d: %+v", instance,
			offset, err)
		return errors.WithMessage(computation.ErrAbortedComputation,
			err.Error())
	}
	c.Measure(measure.TagCallbackReceived)

	if status := c.GetStatus(); status != computation.DISPATCHED {
		jww.WARN.Printf("[%v]: ComputationCallback %d for a computation "+
			"already %s", instance, offset, status)
		return errors.WithMessagef(computation.ErrAbortedComputation,
			"computation %d already %s", offset, status)
	}

	so, err := computation.Authenticate(output, instance.GetCluster(), c)
	if err != nil {
		jww.WARN.Printf("[%v]: ComputationCallback %d refused: %+v",
			instance, offset, err)
		return err
	}

	if so.Status != provider.Success {
		if _, err = manager.Retire(offset, computation.ABORTED); err != nil {
			return err
		}
		jww.WARN.Printf("[%v]: ComputationCallback %d: cluster reported %s",
			instance, offset, so.Status)
		return errors.WithMessagef(computation.ErrAbortedComputation,
			"cluster reported %s", so.Status)
	}

	vo, err := computation.Unpack(so)
	if err != nil {
		if _, retireErr := manager.Retire(offset, computation.ABORTED); retireErr != nil {
			return retireErr
		}
		jww.WARN.Printf("[%v]: ComputationCallback %d: %+v", instance,
			offset, err)
		return err
	}
	c.Measure(measure.TagOutputVerified)

	// Emitted before completing. The log holds one event per offset.
	event := &events.VerifiedOutputEvent{
		ComputationOffset: vo.ComputationOffset,
		Requester:         c.GetRequester(),
		Nonce:             vo.Nonce,
		Fields:            vo.Fields,
	}
	err = instance.EmitEvent(event)
	if errors.Is(err, events.ErrDuplicateEvent) {
		jww.WARN.Printf("[%v]: ComputationCallback %d: %+v", instance,
			offset, err)
		// An event that is not this output belongs to another computation
		logged, getErr := instance.GetEventLog().Get(offset)
		if getErr == nil && !sameEvent(logged, event) {
			if _, retireErr := manager.Retire(offset, computation.ABORTED); retireErr != nil {
				return retireErr
			}
		}
		return errors.WithMessagef(computation.ErrAbortedComputation,
			"computation %d already has an event", offset)
	} else if err != nil {
		jww.ERROR.Printf("[%v]: ComputationCallback %d event was not "+
			"emitted: %+v", instance, offset, err)
		if _, retireErr := manager.Retire(offset, computation.ABORTED); retireErr != nil {
			return retireErr
		}
		return errors.WithMessagef(err, "Failed to emit event for "+
			"computation %d", offset)
	}

	if _, err = manager.Retire(offset, computation.COMPLETED); err != nil {
		jww.ERROR.Printf("[%v]: ComputationCallback %d emitted but could "+
			"not complete: %+v", instance, offset, err)
		return err
	}
	c.Measure(measure.TagEventEmitted)

	if elapsed, ok := c.GetMetrics().Elapsed(measure.TagDispatched,
		measure.TagEventEmitted); ok {
		jww.INFO.Printf("[%v]: ComputationCallback %d END, completed in %s",
			instance, offset, elapsed)
	}
	jww.DEBUG.Printf("[%v]: Computation %d metrics:\n%s", instance, offset,
		c.GetMetrics())
	return nil
}

func sameEvent(a, b *events.VerifiedOutputEvent) bool {
	return bytes.Equal(a.Marshal(), b.Marshal())
}
