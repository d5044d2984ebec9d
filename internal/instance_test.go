///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package internal

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/elixxir/privaterecord/provider/local"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

func mockDefinition(t *testing.T) *Definition {
	key, err := rsa.GenerateKey(csprng.NewSystemRNG(), 1024)
	if err != nil {
		t.Fatalf("Failed to generate key: %+v", err)
	}
	return &Definition{
		ID:               id.NewIdFromString("node", id.Node, t),
		PrivateKey:       key,
		PublicKey:        key.GetPublic(),
		ListeningAddress: "localhost:0",
		Program:          id.NewIdFromString("program", id.Generic, t),
		Cluster: computation.Cluster{
			ID:        id.NewIdFromString("cluster", id.Node, t),
			Offset:    1,
			PublicKey: key.GetPublic(),
		},
		LocalCluster: LocalCluster{Enabled: true, Key: key},
		DevMode:      true,
	}
}

func mockImplementation(*Instance) *comms.Implementation {
	return comms.NewImplementation()
}

// Happy path
func TestCreateInstance(t *testing.T) {
	def := mockDefinition(t)
	def.EventLogPath = filepath.Join(t.TempDir(), "events")

	instance, err := CreateInstance(def, mockImplementation)
	if err != nil {
		t.Fatalf("Failed to create instance: %+v", err)
	}
	defer instance.Shutdown()

	if _, ok := instance.GetProvider().(*local.Cluster); !ok {
		t.Errorf("Expected the local cluster as provider, got %T",
			instance.GetProvider())
	}
	if instance.GetLocalCluster() == nil {
		t.Errorf("Local cluster not set")
	}
	if !instance.GetID().Cmp(def.ID) || !instance.GetProgram().Cmp(def.Program) {
		t.Errorf("Instance does not hold its definition")
	}
	if instance.GetDefinition() != def || instance.GetPubKey() != def.PublicKey {
		t.Errorf("Instance does not hold its definition")
	}
	if !strings.HasPrefix(instance.String(), def.ID.String()+":") {
		t.Errorf("Unexpected instance string %s", instance.String())
	}
	if err = instance.Run(); err != nil {
		t.Errorf("Run failed: %+v", err)
	}
}

// A remote cluster is reached through a cluster client.
func TestCreateInstance_Remote(t *testing.T) {
	def := mockDefinition(t)
	def.LocalCluster = LocalCluster{}
	def.ClusterAddress = "localhost:1"

	instance, err := CreateInstance(def, mockImplementation)
	if err != nil {
		t.Fatalf("Failed to create instance: %+v", err)
	}
	defer instance.Shutdown()

	if _, ok := instance.GetProvider().(*comms.ClusterClient); !ok {
		t.Errorf("Expected a cluster client as provider, got %T",
			instance.GetProvider())
	}
}

// Error path: bad definitions are refused.
func TestCreateInstance_Errors(t *testing.T) {
	def := mockDefinition(t)
	def.Program = nil
	if _, err := CreateInstance(def, mockImplementation); err == nil {
		t.Errorf("Instance created without a program")
	}

	def = mockDefinition(t)
	def.LocalCluster.Key = nil
	if _, err := CreateInstance(def, mockImplementation); err == nil {
		t.Errorf("Local cluster created without a key")
	}
}

// Emitted events are logged and queued, and a full queue only drops the
// queued copy.
func TestInstance_EmitEvent(t *testing.T) {
	instance, err := CreateInstance(mockDefinition(t), mockImplementation)
	if err != nil {
		t.Fatalf("Failed to create instance: %+v", err)
	}
	defer instance.Shutdown()

	e := &events.VerifiedOutputEvent{ComputationOffset: 4}
	if err = instance.EmitEvent(e); err != nil {
		t.Fatalf("EmitEvent failed: %+v", err)
	}
	if _, err = instance.GetEventLog().Get(4); err != nil {
		t.Errorf("Event not logged: %+v", err)
	}
	if queued, err := instance.GetEventQueue().Receive(); err != nil ||
		queued.ComputationOffset != 4 {
		t.Errorf("Event not queued: %v", err)
	}

	if err = instance.EmitEvent(e); !errors.Is(err, events.ErrDuplicateEvent) {
		t.Errorf("Expected ErrDuplicateEvent, got %v", err)
	}

	for i := 0; i < cap(instance.GetEventQueue()); i++ {
		_ = instance.GetEventQueue().Append(&events.VerifiedOutputEvent{})
	}
	if err = instance.EmitEvent(&events.VerifiedOutputEvent{ComputationOffset: 5}); err != nil {
		t.Errorf("Full queue failed the emission: %+v", err)
	}
	if _, err = instance.GetEventLog().Get(5); err != nil {
		t.Errorf("Event not logged with a full queue: %+v", err)
	}
}
