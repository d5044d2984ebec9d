///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

// dispatchComputation.go contains the handler for DispatchComputation

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/elixxir/privaterecord/provider"
)

// ReceiveDispatchComputation queues a lookup of the owner's record for the
// receiver with the provider. The owner defaults to the sender. A nil error
// means the provider admitted the computation; its output arrives later as
// a callback.
func ReceiveDispatchComputation(ctx context.Context, instance *internal.Instance,
	msg *messages.DispatchComputationRequest, auth *comms.Auth) error {
	if !auth.IsAuthenticated {
		jww.WARN.Printf("[%v]: ReceiveDispatchComputation failed auth "+
			"(sender ID: %s)", instance, auth.Sender)
		return comms.AuthError(auth.Sender)
	}
	jww.INFO.Printf("[%v]: DispatchComputation %d START", instance,
		msg.ComputationOffset)

	// Offsets outlive restarts through the event log
	_, err := instance.GetEventLog().Get(msg.ComputationOffset)
	if err == nil {
		err = &computation.ProviderRejectedError{
			Offset: msg.ComputationOffset,
			Reason: errors.WithMessage(provider.ErrDuplicateOffset,
				"offset already has an event"),
		}
		jww.WARN.Printf("[%v]: DispatchComputation %d rejected: %+v",
			instance, msg.ComputationOffset, err)
		return err
	} else if !errors.Is(err, events.ErrNoEvent) {
		return err
	}

	owner := msg.Owner
	if owner == nil {
		owner = auth.Sender
	}

	program := instance.GetProgram()
	ref, err := instance.GetStorage().GetRecordRef(program, owner)
	if err != nil {
		jww.WARN.Printf("[%v]: DispatchComputation %d has no record for "+
			"%s: %+v", instance, msg.ComputationOffset, owner, err)
		return err
	}
	if err = requireRecordSpan(program, ref); err != nil {
		return err
	}

	cluster := instance.GetCluster()
	c := computation.New(msg.ComputationOffset, cluster.Offset, auth.Sender,
		ref.Address)
	qc := computation.BuildQueuedComputation(program, cluster.Offset,
		&computation.Request{
			ComputationOffset: msg.ComputationOffset,
			Receiver: circuit.Shared{
				PublicKey: msg.Receiver,
				Nonce:     msg.ReceiverNonce,
			},
			Sender: circuit.Shared{
				PublicKey: msg.Sender,
				Nonce:     msg.SenderNonce,
			},
			Record: ref,
			Payer:  auth.Sender,
		})

	err = instance.GetComputationManager().Dispatch(ctx,
		instance.GetProvider(), c, qc)
	if err != nil {
		jww.WARN.Printf("[%v]: DispatchComputation %d rejected: %+v",
			instance, msg.ComputationOffset, err)
		return err
	}

	jww.INFO.Printf("[%v]: DispatchComputation %d END, queued at %s",
		instance, msg.ComputationOffset, c.GetAddress())
	return nil
}
