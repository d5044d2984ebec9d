///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package messages

import (
	"testing"

	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/xx_network/primitives/id"
	"google.golang.org/protobuf/encoding/protowire"
)

// Tests that the dispatch request keeps each party's key and nonce apart.
func TestDispatchComputationRequest_Unmarshal(t *testing.T) {
	m := &DispatchComputationRequest{
		ComputationOffset: 7,
		Receiver:          circuit.PublicKey{1},
		ReceiverNonce:     circuit.NonceFromUint128(0, 2),
		Sender:            circuit.PublicKey{3},
		SenderNonce:       circuit.NonceFromUint128(0, 4),
		Owner:             id.NewIdFromString("owner", id.User, t),
	}

	received := &DispatchComputationRequest{}
	if err := received.Unmarshal(m.Marshal()); err != nil {
		t.Fatalf("Failed to unmarshal: %+v", err)
	}
	if received.ComputationOffset != 7 || received.Receiver != m.Receiver ||
		received.ReceiverNonce != m.ReceiverNonce ||
		received.Sender != m.Sender || received.SenderNonce != m.SenderNonce ||
		!received.Owner.Cmp(m.Owner) {
		t.Errorf("Request did not round trip.\nexpected: %+v\nreceived: %+v",
			m, received)
	}

	// A missing owner stays nil
	m.Owner = nil
	received = &DispatchComputationRequest{}
	if err := received.Unmarshal(m.Marshal()); err != nil {
		t.Fatalf("Failed to unmarshal: %+v", err)
	}
	if received.Owner != nil {
		t.Errorf("Unexpected owner %s", received.Owner)
	}
}

// Error path: a request missing a key does not unmarshal.
func TestDispatchComputationRequest_Unmarshal_MissingKey(t *testing.T) {
	var w Writer
	w.Uint64(1, 7)
	if err := (&DispatchComputationRequest{}).Unmarshal(w); err == nil {
		t.Errorf("Request without keys was unmarshalled")
	}
}

// Error path: records must have every field.
func TestStoreRecordRequest_Unmarshal_Short(t *testing.T) {
	var w Writer
	for i := 0; i < circuit.NumFields-1; i++ {
		w.Bytes(1, make([]byte, circuit.CiphertextSize))
	}
	if err := (&StoreRecordRequest{}).Unmarshal(w); err == nil {
		t.Errorf("Record with %d fields was unmarshalled", circuit.NumFields-1)
	}
}

// Tests that unknown fields are skipped.
func TestParse_UnknownFields(t *testing.T) {
	var w Writer
	w.Uint64(1, 9)
	b := protowire.AppendTag([]byte(w), 15, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 1)

	m := &GetComputationEventRequest{}
	if err := m.Unmarshal(b); err != nil {
		t.Fatalf("Failed to unmarshal: %+v", err)
	}
	if m.ComputationOffset != 9 {
		t.Errorf("Unexpected offset %d", m.ComputationOffset)
	}
}

// Error path: truncated input.
func TestParse_Truncated(t *testing.T) {
	var w Writer
	w.Bytes(1, []byte("payload"))
	if _, err := Parse(w[:len(w)-2]); err == nil {
		t.Errorf("Truncated message was parsed")
	}
}
