///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

// initComputationDefinition.go contains the handlers for the computation
// definition registry

import (
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/messages"
)

// ReceiveInitComputationDefinition registers the named circuit for the
// node's program. It succeeds once per circuit.
func ReceiveInitComputationDefinition(instance *internal.Instance,
	msg *messages.InitComputationDefinitionRequest,
	auth *comms.Auth) (*messages.InitComputationDefinitionResponse, error) {
	if !auth.IsAuthenticated {
		jww.WARN.Printf("[%v]: ReceiveInitComputationDefinition failed auth "+
			"(sender ID: %s)", instance, auth.Sender)
		return nil, comms.AuthError(auth.Sender)
	}
	if err := requireLookupCircuit(msg.Name); err != nil {
		return nil, err
	}
	jww.INFO.Printf("[%v]: InitComputationDefinition %s START", instance,
		msg.Name)

	offset, err := instance.GetStorage().InitComputationDefinition(
		instance.GetProgram(), msg.Name)
	if err != nil {
		jww.WARN.Printf("[%v]: InitComputationDefinition %s failed: %+v",
			instance, msg.Name, err)
		return nil, err
	}

	jww.INFO.Printf("[%v]: InitComputationDefinition %s END at offset %d",
		instance, msg.Name, offset)
	return &messages.InitComputationDefinitionResponse{CompDefOffset: offset}, nil
}

// ReceiveIsInitialized answers whether a program's computation definition
// exists
func ReceiveIsInitialized(instance *internal.Instance,
	msg *messages.DefinitionQuery, _ *comms.Auth) (*messages.DefinitionStatus, error) {
	if msg.Program == nil {
		return &messages.DefinitionStatus{}, nil
	}
	return &messages.DefinitionStatus{
		Initialized: instance.GetStorage().IsInitialized(msg.Program,
			msg.CompDefOffset),
	}, nil
}
