///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package io impl.go points the node service's handlers at the node's
// instance
package io

import (
	"context"

	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/messages"
)

// NewImplementation creates a new implementation of the node.
// When a function is added to comms, you'll need to point to it here.
func NewImplementation(instance *internal.Instance) *comms.Implementation {
	impl := comms.NewImplementation()

	impl.Functions.StoreRecord = func(msg *messages.StoreRecordRequest,
		auth *comms.Auth) (*messages.RecordRef, error) {
		return ReceiveStoreRecord(instance, msg, auth)
	}

	impl.Functions.InitComputationDefinition = func(
		msg *messages.InitComputationDefinitionRequest,
		auth *comms.Auth) (*messages.InitComputationDefinitionResponse, error) {
		return ReceiveInitComputationDefinition(instance, msg, auth)
	}

	impl.Functions.DispatchComputation = func(ctx context.Context,
		msg *messages.DispatchComputationRequest, auth *comms.Auth) error {
		return ReceiveDispatchComputation(ctx, instance, msg, auth)
	}

	impl.Functions.ComputationCallback = func(_ context.Context,
		msg *messages.ComputationCallback, auth *comms.Auth) error {
		return ReceiveComputationCallback(instance, msg.ComputationOffset,
			msg.Output, auth)
	}

	impl.Functions.GetComputationEvent = func(
		msg *messages.GetComputationEventRequest,
		auth *comms.Auth) (*messages.ComputationEvent, error) {
		return ReceiveGetComputationEvent(instance, msg, auth)
	}

	impl.Functions.ReadAccount = func(msg *messages.AccountRequest,
		auth *comms.Auth) (*messages.AccountData, error) {
		return ReceiveReadAccount(instance, msg, auth)
	}

	impl.Functions.IsInitialized = func(msg *messages.DefinitionQuery,
		auth *comms.Auth) (*messages.DefinitionStatus, error) {
		return ReceiveIsInitialized(instance, msg, auth)
	}

	return impl
}
