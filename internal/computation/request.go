///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package computation

// request.go builds the queued computation for a record lookup

import (
	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/elixxir/privaterecord/storage"
	"gitlab.com/xx_network/primitives/id"
)

// Request is a lookup of a stored record on behalf of a receiver
type Request struct {
	ComputationOffset uint64
	Receiver          circuit.Shared
	Sender            circuit.Shared
	Record            *storage.RecordRef
	Payer             *id.ID
}

// BuildQueuedComputation lays the request out for the provider. Arguments
// are in the order the lookup circuit binds them: receiver key, receiver
// nonce, sender key, sender nonce, record. Exactly one callback is
// registered, for the request's offset.
func BuildQueuedComputation(program *id.ID, clusterOffset uint32,
	req *Request) *provider.QueuedComputation {
	args := circuit.NewArgBuilder().
		X25519Pubkey(req.Receiver.PublicKey).
		PlaintextU128(req.Receiver.Nonce).
		X25519Pubkey(req.Sender.PublicKey).
		PlaintextU128(req.Sender.Nonce).
		Account(req.Record.Address, req.Record.Offset, req.Record.Length).
		Build()

	mxe := address.MXEAddress(program)
	return &provider.QueuedComputation{
		ComputationOffset: req.ComputationOffset,
		Computation: address.ComputationAddress(clusterOffset,
			req.ComputationOffset),
		CompDefOffset: address.CompDefOffset(circuit.LookupName),
		Program:       program,
		MXE:           mxe,
		ClusterOffset: clusterOffset,
		Args:          args,
		Callbacks: []provider.CallbackDescriptor{{
			Instruction:       provider.CallbackInstruction,
			ComputationOffset: req.ComputationOffset,
			MXE:               mxe,
		}},
		Payer:         req.Payer,
		Signer:        address.SignerAddress(program),
		Mempool:       address.MempoolAddress(clusterOffset),
		ExecutingPool: address.ExecutingPoolAddress(clusterOffset),
	}
}
