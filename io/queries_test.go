///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

import (
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/elixxir/privaterecord/storage"
	"gitlab.com/xx_network/primitives/id"
)

// Happy path
func TestReceiveGetComputationEvent(t *testing.T) {
	tn := newTestNode(t)
	c := tn.dispatchByHand(t, 21)
	out := testOutput()
	raw := tn.signedOutput(t, c, provider.Success,
		provider.EncodePayload(out), tn.clusterKey)
	if err := ReceiveComputationCallback(tn.instance, 21, raw, nil); err != nil {
		t.Fatalf("Callback failed: %+v", err)
	}

	ev, err := ReceiveGetComputationEvent(tn.instance,
		&messages.GetComputationEventRequest{ComputationOffset: 21}, nil)
	if err != nil {
		t.Fatalf("ReceiveGetComputationEvent failed: %+v", err)
	}
	if ev.ComputationOffset != 21 || ev.Nonce != out.Nonce ||
		ev.Fields != out.Ciphertexts {
		t.Errorf("Unexpected event %+v", ev)
	}
}

// Error path: no event has been emitted for the offset.
func TestReceiveGetComputationEvent_None(t *testing.T) {
	tn := newTestNode(t)
	_, err := ReceiveGetComputationEvent(tn.instance,
		&messages.GetComputationEventRequest{ComputationOffset: 1}, nil)
	if !errors.Is(err, events.ErrNoEvent) {
		t.Errorf("Expected ErrNoEvent, got %v", err)
	}
}

// Error path: reading an account that does not exist.
func TestReceiveReadAccount(t *testing.T) {
	tn := newTestNode(t)
	_, err := ReceiveReadAccount(tn.instance, &messages.AccountRequest{
		Address: id.NewIdFromString("nothing", id.Generic, t)}, nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err = ReceiveReadAccount(tn.instance, &messages.AccountRequest{}, nil)
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Errorf("Expected a ConstraintError, got %v", err)
	}
}
