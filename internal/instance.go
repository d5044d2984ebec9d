///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package internal

// instance.go contains the logic for the internal.Instance object along with
// constructors and it's methods

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/events"
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/elixxir/privaterecord/provider/local"
	"gitlab.com/elixxir/privaterecord/storage"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

// Instance holds long-lived node state
type Instance struct {
	definition *Definition
	storage    *storage.Storage
	manager    *computation.Manager
	provider   provider.Provider
	network    *comms.NodeComms

	// Set when the provider is in process
	localCluster *local.Cluster
	// Set when the provider is remote
	clusterClient *comms.ClusterClient

	eventLog   *events.Log
	eventQueue events.Queue
	// Log first, then the live queue
	emitter events.Stream
}

// Wraps a stream whose failures are logged and dropped
type bestEffort struct {
	events.Stream
}

func (b bestEffort) Append(e *events.VerifiedOutputEvent) error {
	if err := b.Stream.Append(e); err != nil {
		jww.WARN.Printf("%s", err)
	}
	return nil
}

// CreateInstance builds the node's storage, event log and provider and
// starts serving makeImplementation's handlers. Call Run to start an in
// process cluster and Shutdown to stop everything.
func CreateInstance(def *Definition,
	makeImplementation func(*Instance) *comms.Implementation) (*Instance, error) {
	if def.Program == nil {
		return nil, errors.New("Cannot create an instance without a program")
	}

	store, err := storage.NewStorage(def.Database.Username,
		def.Database.Password, def.Database.Name, def.Database.Address,
		def.Database.Port, def.DevMode)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to initialize storage")
	}

	var eventLog *events.Log
	if def.EventLogPath == "" {
		jww.WARN.Printf("No event log path given, events will not survive " +
			"a restart")
		eventLog, err = events.NewMemLog()
	} else {
		eventLog, err = events.OpenLog(def.EventLogPath)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to open event log")
	}
	logged := 0
	err = eventLog.Iterate(func(*events.VerifiedOutputEvent) bool {
		logged++
		return true
	})
	if err != nil {
		_ = eventLog.Close()
		return nil, errors.WithMessage(err, "Failed to read event log")
	}
	jww.INFO.Printf("Event log holds %d events", logged)

	queue := events.NewQueue()
	instance := &Instance{
		definition: def,
		storage:    store,
		manager:    computation.NewManager(),
		eventLog:   eventLog,
		eventQueue: queue,
		emitter:    events.Tee(eventLog, bestEffort{queue}),
	}
	impl := makeImplementation(instance)

	if def.LocalCluster.Enabled {
		if err = instance.createLocalCluster(impl); err != nil {
			_ = eventLog.Close()
			return nil, err
		}
	} else {
		instance.clusterClient, err = comms.NewClusterClient(def.ClusterAddress)
		if err != nil {
			_ = eventLog.Close()
			return nil, errors.WithMessage(err, "Failed to connect to cluster")
		}
		instance.provider = instance.clusterClient
	}

	instance.network, err = comms.StartNode(def.ID, def.ListeningAddress, impl)
	if err != nil {
		instance.closeProvider()
		_ = eventLog.Close()
		return nil, errors.WithMessage(err, "Failed to start network")
	}
	jww.INFO.Printf("Network Interface Initilized for Node ")

	return instance, nil
}

func (i *Instance) createLocalCluster(impl *comms.Implementation) error {
	def := i.definition
	if def.LocalCluster.Key == nil {
		return errors.New("Local cluster requires a signing key")
	}
	boundary, err := circuit.LoadBoundary(def.LocalCluster.MXESecret)
	if err != nil {
		return errors.WithMessage(err, "Failed to load MXE key")
	}
	i.localCluster = local.New(local.Params{
		ID:          def.Cluster.ID,
		Offset:      def.Cluster.Offset,
		Key:         def.LocalCluster.Key,
		Boundary:    boundary,
		Registry:    i.storage,
		Accounts:    i.storage,
		Sink:        implSink{impl: impl},
		Workers:     def.LocalCluster.Workers,
		MempoolSize: def.LocalCluster.MempoolSize,
	})
	i.provider = i.localCluster
	jww.INFO.Printf("Local cluster %s created at offset %d",
		def.Cluster.ID, def.Cluster.Offset)
	return nil
}

// Run starts the in process cluster, if there is one
func (i *Instance) Run() error {
	if i.localCluster != nil {
		i.localCluster.Start()
	}
	return nil
}

// Shutdown stops serving and releases the provider and event log
func (i *Instance) Shutdown() {
	i.network.Shutdown()
	i.closeProvider()
	if err := i.eventLog.Close(); err != nil {
		jww.ERROR.Printf("Failed to close event log: %+v", err)
	}
}

func (i *Instance) closeProvider() {
	if i.localCluster != nil {
		i.localCluster.Stop()
	}
	if i.clusterClient != nil {
		if err := i.clusterClient.Close(); err != nil {
			jww.WARN.Printf("Failed to close cluster connection: %+v", err)
		}
	}
}

// EmitEvent appends the event to the event log and offers it to the live
// queue. A full queue drops the event from the queue only.
func (i *Instance) EmitEvent(e *events.VerifiedOutputEvent) error {
	return i.emitter.Append(e)
}

// GetDefinition returns the internal.Definition object
func (i *Instance) GetDefinition() *Definition {
	return i.definition
}

// GetStorage returns the record and definition storage
func (i *Instance) GetStorage() *storage.Storage {
	return i.storage
}

// GetComputationManager returns the computation manager
func (i *Instance) GetComputationManager() *computation.Manager {
	return i.manager
}

// GetProvider returns the provider computations are queued with
func (i *Instance) GetProvider() provider.Provider {
	return i.provider
}

// GetLocalCluster returns the in process cluster, or nil if the provider is
// remote
func (i *Instance) GetLocalCluster() *local.Cluster {
	return i.localCluster
}

// GetNetwork returns the network object
func (i *Instance) GetNetwork() *comms.NodeComms {
	return i.network
}

// GetEventLog returns the durable event log
func (i *Instance) GetEventLog() *events.Log {
	return i.eventLog
}

// GetEventQueue returns the queue of live events
func (i *Instance) GetEventQueue() events.Queue {
	return i.eventQueue
}

// GetID returns this node's ID
func (i *Instance) GetID() *id.ID {
	return i.definition.ID
}

// GetProgram returns the program this node serves
func (i *Instance) GetProgram() *id.ID {
	return i.definition.Program
}

// GetCluster returns the cluster outputs are accepted from
func (i *Instance) GetCluster() computation.Cluster {
	return i.definition.Cluster
}

// GetPubKey returns the node's public key
func (i *Instance) GetPubKey() *rsa.PublicKey {
	return i.definition.PublicKey
}

func (i *Instance) String() string {
	nid := i.definition.ID
	if i.network == nil {
		return nid.String()
	}
	localServer := i.network.String()
	port := localServer[strings.LastIndex(localServer, ":")+1:]
	return fmt.Sprintf("%s:%s", nid, port)
}
