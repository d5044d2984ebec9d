///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package provider defines the node's view of the confidential computation
// provider: the queued computation it admits, the callback it later delivers
// and the signed output the callback carries.
package provider

import (
	"context"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/xx_network/primitives/id"
)

// CallbackInstruction names the node operation a lookup result is delivered to
const CallbackInstruction = "private_record_lookup_callback"

// Reasons the provider refuses to admit a computation
var (
	ErrDuplicateOffset    = errors.New("computation offset already queued")
	ErrUnknownDefinition  = errors.New("computation definition not initialized")
	ErrMalformedArguments = errors.New("arguments do not match the circuit")
	ErrQueueFull          = errors.New("mempool full")
)

// CallbackDescriptor names the instruction the provider invokes with the
// output of a computation.
type CallbackDescriptor struct {
	Instruction       string
	ComputationOffset uint64
	MXE               *id.ID
	Accounts          []*id.ID
}

// QueuedComputation is one invocation handed to the provider
type QueuedComputation struct {
	ComputationOffset uint64
	// Address of the computation account on the cluster
	Computation   *id.ID
	CompDefOffset uint32
	Program       *id.ID
	MXE           *id.ID
	ClusterOffset uint32
	Args          []circuit.Argument
	Callbacks     []CallbackDescriptor
	Payer         *id.ID

	// Accounts the cluster moves the computation through
	Signer        *id.ID
	Mempool       *id.ID
	ExecutingPool *id.ID
}

// Provider admits computations. A nil error means the computation was queued,
// not that it will succeed.
type Provider interface {
	QueueComputation(ctx context.Context, qc *QueuedComputation) error
}

// CallbackSink receives the signed output of a computation
type CallbackSink interface {
	ComputationCallback(ctx context.Context, computationOffset uint64,
		output []byte) error
}

// Registry answers whether a program has initialized a computation definition
type Registry interface {
	IsInitialized(program *id.ID, compDefOffset uint32) bool
}

// AccountReader returns the raw data of an account
type AccountReader interface {
	ReadAccount(addr *id.ID) ([]byte, error)
}
