///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package events

// queue.go contains the live event queue. It is a channel which receives each
// event as it is emitted.

import (
	"github.com/pkg/errors"
)

// Queue is a buffered channel of emitted events
type Queue chan *VerifiedOutputEvent

const maxQueuedEvents = 100

// NewQueue creates an empty event queue
func NewQueue() Queue {
	return make(Queue, maxQueuedEvents)
}

// Append sends the event without blocking
func (q Queue) Append(e *VerifiedOutputEvent) error {
	select {
	case q <- e:
		return nil
	default:
		return errors.Errorf("Event queue full at len %v, event dropped "+
			"for computation %d", len(q), e.ComputationOffset)
	}
}

// Receive returns the next event without blocking
func (q Queue) Receive() (*VerifiedOutputEvent, error) {
	select {
	case e := <-q:
		return e, nil
	default:
		return nil, errors.New("Did not receive an event")
	}
}
