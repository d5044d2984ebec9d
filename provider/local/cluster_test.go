///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package local

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/elixxir/privaterecord/storage"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

type delivered struct {
	offset uint64
	output []byte
}

type chanSink chan delivered

func (s chanSink) ComputationCallback(_ context.Context, offset uint64,
	output []byte) error {
	s <- delivered{offset: offset, output: output}
	return nil
}

type testEnv struct {
	cluster     *Cluster
	store       *storage.Storage
	program     *id.ID
	owner       *id.ID
	record      *storage.RecordRef
	plaintext   circuit.StructuredRecord
	senderPub   circuit.PublicKey
	senderNonce circuit.Nonce
	receiverSec [32]byte
	receiverPub circuit.PublicKey
	sink        chanSink
}

func newTestEnv(t *testing.T, mempool int) *testEnv {
	key, err := rsa.GenerateKey(csprng.NewSystemRNG(), 1024)
	if err != nil {
		t.Fatalf("Failed to generate key: %+v", err)
	}
	boundary, err := circuit.NewBoundary(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to create boundary: %+v", err)
	}
	store, err := storage.NewStorage("", "", "", "", "", true)
	if err != nil {
		t.Fatalf("Failed to create storage: %+v", err)
	}

	env := &testEnv{
		store:   store,
		program: id.NewIdFromString("program", id.Generic, t),
		owner:   id.NewIdFromString("owner", id.User, t),
		sink:    make(chanSink, 10),
	}
	env.plaintext = circuit.StructuredRecord{PatientID: 9, Age: 41,
		BloodType: 2, Weight: 80, Height: 180}
	if _, err = store.InitComputationDefinition(env.program,
		circuit.LookupName); err != nil {
		t.Fatalf("Failed to init definition: %+v", err)
	}

	senderSec, senderPub, _ := circuit.GenerateKey(rand.Reader)
	env.senderPub = senderPub
	env.senderNonce = circuit.NonceFromUint128(0, 77)
	ct, err := circuit.Seal(env.plaintext, senderSec, boundary.PublicKey(),
		env.senderNonce)
	if err != nil {
		t.Fatalf("Failed to seal: %+v", err)
	}
	env.record, err = store.StoreRecord(env.program, env.owner, ct)
	if err != nil {
		t.Fatalf("Failed to store: %+v", err)
	}
	env.receiverSec, env.receiverPub, _ = circuit.GenerateKey(rand.Reader)

	env.cluster = New(Params{
		ID:          id.NewIdFromString("cluster", id.Node, t),
		Offset:      3,
		Key:         key,
		Boundary:    boundary,
		Registry:    store,
		Accounts:    store,
		Sink:        env.sink,
		Workers:     2,
		MempoolSize: mempool,
	})
	return env
}

func (env *testEnv) computation(offset uint64) *provider.QueuedComputation {
	mxe := address.MXEAddress(env.program)
	return &provider.QueuedComputation{
		ComputationOffset: offset,
		Computation:       address.ComputationAddress(3, offset),
		CompDefOffset:     address.CompDefOffset(circuit.LookupName),
		Program:           env.program,
		MXE:               mxe,
		ClusterOffset:     3,
		Args: circuit.NewArgBuilder().
			X25519Pubkey(env.receiverPub).
			PlaintextU128(circuit.NonceFromUint128(0, offset)).
			X25519Pubkey(env.senderPub).
			PlaintextU128(env.senderNonce).
			Account(env.record.Address, env.record.Offset, env.record.Length).
			Build(),
		Callbacks: []provider.CallbackDescriptor{{
			Instruction:       provider.CallbackInstruction,
			ComputationOffset: offset,
			MXE:               mxe,
		}},
		Signer:        address.SignerAddress(env.program),
		Mempool:       address.MempoolAddress(3),
		ExecutingPool: address.ExecutingPoolAddress(3),
	}
}

func (env *testEnv) await(t *testing.T) *provider.SignedOutput {
	select {
	case d := <-env.sink:
		so := &provider.SignedOutput{}
		if err := so.Unmarshal(d.output); err != nil {
			t.Fatalf("Failed to unmarshal output: %+v", err)
		}
		if so.ComputationOffset != d.offset {
			t.Errorf("Output for %d delivered to %d",
				so.ComputationOffset, d.offset)
		}
		return so
	case <-time.After(5 * time.Second):
		t.Fatalf("No output delivered")
	}
	return nil
}

// Happy path
func TestCluster_QueueComputation(t *testing.T) {
	env := newTestEnv(t, 10)
	env.cluster.Start()
	defer env.cluster.Stop()

	if err := env.cluster.QueueComputation(context.Background(),
		env.computation(7)); err != nil {
		t.Fatalf("Computation was not admitted: %+v", err)
	}

	so := env.await(t)
	if so.Status != provider.Success {
		t.Fatalf("Computation did not succeed: %s", so.Status)
	}
	if err := so.Verify(env.cluster.PublicKey()); err != nil {
		t.Errorf("Output signature did not verify: %+v", err)
	}

	nonce, fields, err := provider.DecodePayload(so.Payload)
	if err != nil {
		t.Fatalf("Failed to decode payload: %+v", err)
	}
	var out circuit.Output
	copy(out.Nonce[:], nonce)
	for i := range out.Ciphertexts {
		copy(out.Ciphertexts[i][:], fields[i])
	}
	received, err := circuit.Open(out, env.receiverSec,
		env.cluster.BoundaryKey())
	if err != nil {
		t.Fatalf("Failed to open output: %+v", err)
	}
	if received != env.plaintext {
		t.Errorf("Receiver got the wrong record.\nexpected: %+v\n"+
			"received: %+v", env.plaintext, received)
	}
}

// Error path: an offset is admitted once, whether or not it has run.
func TestCluster_QueueComputation_Duplicate(t *testing.T) {
	env := newTestEnv(t, 10)
	if err := env.cluster.QueueComputation(context.Background(),
		env.computation(7)); err != nil {
		t.Fatalf("Computation was not admitted: %+v", err)
	}
	err := env.cluster.QueueComputation(context.Background(), env.computation(7))
	if !errors.Is(err, provider.ErrDuplicateOffset) {
		t.Errorf("Expected ErrDuplicateOffset, received %+v", err)
	}
}

// Error path: computations for uninitialized definitions are refused.
func TestCluster_QueueComputation_UnknownDefinition(t *testing.T) {
	env := newTestEnv(t, 10)
	qc := env.computation(7)
	qc.Program = id.NewIdFromString("other", id.Generic, t)
	err := env.cluster.QueueComputation(context.Background(), qc)
	if !errors.Is(err, provider.ErrUnknownDefinition) {
		t.Errorf("Expected ErrUnknownDefinition, received %+v", err)
	}

	// The refused offset is still free
	if err = env.cluster.QueueComputation(context.Background(),
		env.computation(7)); err != nil {
		t.Errorf("Offset was consumed by a refused computation: %+v", err)
	}
}

// Error path: argument lists that do not match the circuit are refused.
func TestCluster_QueueComputation_MalformedArguments(t *testing.T) {
	env := newTestEnv(t, 10)
	qc := env.computation(7)
	qc.Args[0], qc.Args[1] = qc.Args[1], qc.Args[0]
	err := env.cluster.QueueComputation(context.Background(), qc)
	if !errors.Is(err, provider.ErrMalformedArguments) {
		t.Errorf("Expected ErrMalformedArguments, received %+v", err)
	}

	qc = env.computation(8)
	qc.Computation = address.ComputationAddress(3, 9)
	err = env.cluster.QueueComputation(context.Background(), qc)
	if !errors.Is(err, provider.ErrMalformedArguments) {
		t.Errorf("Expected ErrMalformedArguments for the wrong computation "+
			"account, received %+v", err)
	}

	qc = env.computation(9)
	qc.Mempool = address.MempoolAddress(4)
	err = env.cluster.QueueComputation(context.Background(), qc)
	if !errors.Is(err, provider.ErrMalformedArguments) {
		t.Errorf("Expected ErrMalformedArguments for another cluster's "+
			"mempool, received %+v", err)
	}
}

// Error path: a full mempool refuses without consuming the offset.
func TestCluster_QueueComputation_Full(t *testing.T) {
	env := newTestEnv(t, 1)
	if err := env.cluster.QueueComputation(context.Background(),
		env.computation(1)); err != nil {
		t.Fatalf("Computation was not admitted: %+v", err)
	}
	err := env.cluster.QueueComputation(context.Background(), env.computation(2))
	if !errors.Is(err, provider.ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, received %+v", err)
	}

	env.cluster.Start()
	defer env.cluster.Stop()
	env.await(t)

	if err = env.cluster.QueueComputation(context.Background(),
		env.computation(2)); err != nil {
		t.Errorf("Offset was consumed by a refused computation: %+v", err)
	}
}

// Tests that a record that does not decrypt produces a signed abort.
func TestCluster_Abort(t *testing.T) {
	env := newTestEnv(t, 10)
	env.cluster.Start()
	defer env.cluster.Stop()

	qc := env.computation(7)
	qc.Args[3] = circuit.NewArgBuilder().
		PlaintextU128(circuit.NonceFromUint128(1, 1)).Build()[0]
	if err := env.cluster.QueueComputation(context.Background(), qc); err != nil {
		t.Fatalf("Computation was not admitted: %+v", err)
	}

	so := env.await(t)
	if so.Status != provider.Aborted {
		t.Errorf("Expected an aborted output, received %s", so.Status)
	}
	if len(so.Payload) != 0 {
		t.Errorf("Aborted output carries a payload")
	}
	if err := so.Verify(env.cluster.PublicKey()); err != nil {
		t.Errorf("Abort signature did not verify: %+v", err)
	}
}
