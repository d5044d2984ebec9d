///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package io

import (
	"context"
	"crypto/rand"
	"testing"

	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

const testClusterOffset = 3

type testNode struct {
	instance   *internal.Instance
	clusterKey *rsa.PrivateKey
}

// Builds a dev mode node with an in process cluster
func newTestNode(t *testing.T) *testNode {
	key, err := rsa.GenerateKey(csprng.NewSystemRNG(), 1024)
	if err != nil {
		t.Fatalf("Failed to generate cluster key: %+v", err)
	}
	var mxeSecret [32]byte
	if _, err = rand.Read(mxeSecret[:]); err != nil {
		t.Fatalf("Failed to generate MXE secret: %+v", err)
	}

	def := &internal.Definition{
		ID:               id.NewIdFromString("node", id.Node, t),
		ListeningAddress: "localhost:0",
		Program:          id.NewIdFromString("program", id.Generic, t),
		Cluster: computation.Cluster{
			ID:        id.NewIdFromString("cluster", id.Node, t),
			Offset:    testClusterOffset,
			PublicKey: key.GetPublic(),
		},
		LocalCluster: internal.LocalCluster{
			Enabled:   true,
			Workers:   2,
			MXESecret: mxeSecret,
			Key:       key,
		},
		DevMode: true,
	}

	instance, err := internal.CreateInstance(def, NewImplementation)
	if err != nil {
		t.Fatalf("Failed to create instance: %+v", err)
	}
	t.Cleanup(instance.Shutdown)
	if err = instance.Run(); err != nil {
		t.Fatalf("Failed to run instance: %+v", err)
	}
	return &testNode{instance: instance, clusterKey: key}
}

func userAuth(t *testing.T, name string) *comms.Auth {
	return &comms.Auth{
		IsAuthenticated: true,
		Sender:          id.NewIdFromString(name, id.User, t),
	}
}

func randomKey(t *testing.T) ([32]byte, circuit.PublicKey) {
	secret, pub, err := circuit.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate x25519 key: %+v", err)
	}
	return secret, pub
}

// acceptAll admits every computation without running it
type acceptAll struct{}

func (acceptAll) QueueComputation(context.Context, *provider.QueuedComputation) error {
	return nil
}

// Registers a computation at offset without a cluster running it, so tests
// can deliver callbacks by hand
func (tn *testNode) dispatchByHand(t *testing.T, offset uint64) *computation.Computation {
	i := tn.instance
	record := id.NewIdFromString("record", id.Generic, t)
	c := computation.New(offset, testClusterOffset,
		id.NewIdFromString("requester", id.User, t), record)
	err := i.GetComputationManager().Dispatch(context.Background(),
		acceptAll{}, c, &provider.QueuedComputation{ComputationOffset: offset})
	if err != nil {
		t.Fatalf("Failed to dispatch by hand: %+v", err)
	}
	return c
}

// Signs an output for c as the test cluster
func (tn *testNode) signedOutput(t *testing.T, c *computation.Computation,
	status provider.Status, payload []byte, key *rsa.PrivateKey) []byte {
	so := &provider.SignedOutput{
		Cluster:           tn.instance.GetCluster().ID,
		ComputationOffset: c.GetOffset(),
		Computation:       c.GetAddress(),
		Status:            status,
		Payload:           payload,
	}
	if err := so.Sign(csprng.NewSystemRNG(), key); err != nil {
		t.Fatalf("Failed to sign output: %+v", err)
	}
	return so.Marshal()
}
