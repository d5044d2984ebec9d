///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package events carries verified computation outputs to the client. Events
// are appended in order to a Stream; the node tees them into a durable log
// and a live queue.
package events

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/xx_network/primitives/id"
)

// EventSize is the length of a marshalled VerifiedOutputEvent
const EventSize = 8 + id.ArrIDLen + circuit.NonceSize + circuit.RecordSize

// VerifiedOutputEvent is the re-encrypted record of one completed computation.
// Fields are in the fixed record order.
type VerifiedOutputEvent struct {
	ComputationOffset uint64
	Requester         *id.ID
	Nonce             circuit.Nonce
	Fields            circuit.EncryptedRecord
}

// Stream is an append-only sink of events
type Stream interface {
	Append(e *VerifiedOutputEvent) error
}

// Marshal serializes the event as offset (big endian), requester, nonce and
// fields. A nil requester is written as the zero ID.
func (e *VerifiedOutputEvent) Marshal() []byte {
	b := make([]byte, 0, EventSize)
	b = binary.BigEndian.AppendUint64(b, e.ComputationOffset)

	requester := &id.ID{}
	if e.Requester != nil {
		requester = e.Requester
	}
	b = append(b, requester.Marshal()...)
	b = append(b, e.Nonce[:]...)
	return append(b, e.Fields.Bytes()...)
}

// UnmarshalEvent deserializes an event written by Marshal
func UnmarshalEvent(b []byte) (*VerifiedOutputEvent, error) {
	if len(b) != EventSize {
		return nil, errors.Errorf("Event must be %d bytes, received %d",
			EventSize, len(b))
	}

	e := &VerifiedOutputEvent{ComputationOffset: binary.BigEndian.Uint64(b)}
	b = b[8:]

	requester, err := id.Unmarshal(b[:id.ArrIDLen])
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to unmarshal requester")
	}
	e.Requester = requester
	b = b[id.ArrIDLen:]

	copy(e.Nonce[:], b[:circuit.NonceSize])
	e.Fields, err = circuit.UnmarshalEncryptedRecord(b[circuit.NonceSize:])
	if err != nil {
		return nil, err
	}
	return e, nil
}

type tee []Stream

// Tee returns a Stream appending each event to every stream in order. It
// stops at the first failing stream.
func Tee(streams ...Stream) Stream {
	return tee(streams)
}

func (t tee) Append(e *VerifiedOutputEvent) error {
	for _, s := range t {
		if err := s.Append(e); err != nil {
			return err
		}
	}
	return nil
}
