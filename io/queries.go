///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

// queries.go contains the read only handlers

import (
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/messages"
)

// ReceiveGetComputationEvent returns the event emitted for an offset, or
// events.ErrNoEvent if there is none yet
func ReceiveGetComputationEvent(instance *internal.Instance,
	msg *messages.GetComputationEventRequest,
	_ *comms.Auth) (*messages.ComputationEvent, error) {
	e, err := instance.GetEventLog().Get(msg.ComputationOffset)
	if err != nil {
		return nil, err
	}
	return &messages.ComputationEvent{
		ComputationOffset: e.ComputationOffset,
		Nonce:             e.Nonce,
		Fields:            e.Fields,
	}, nil
}

// ReceiveReadAccount returns the raw data of a record account
func ReceiveReadAccount(instance *internal.Instance,
	msg *messages.AccountRequest, _ *comms.Auth) (*messages.AccountData, error) {
	if msg.Address == nil {
		return nil, &ConstraintError{Constraint: "account address required"}
	}
	data, err := instance.GetStorage().ReadAccount(msg.Address)
	if err != nil {
		return nil, err
	}
	return &messages.AccountData{Data: data}, nil
}
