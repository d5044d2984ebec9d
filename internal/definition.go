///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package internal

import (
	"gitlab.com/elixxir/privaterecord/internal/computation"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/id"
)

// Definition holds everything a node needs to start, filled out by the
// node command from its params
type Definition struct {
	//The ID of the node in the correct format
	ID *id.ID
	// The Salt used to generate the Node ID
	Salt []byte

	// RSA keys defining the node's ownership
	PublicKey  *rsa.PublicKey
	PrivateKey *rsa.PrivateKey

	// String containing the local address and port to listen on
	ListeningAddress string

	// Path the node will store its log at
	LogPath string
	// Path of the event log. Empty keeps events in memory.
	EventLogPath string

	// The program whose accounts this node serves
	Program *id.ID

	// The cluster outputs are accepted from
	Cluster computation.Cluster
	// Address of a remote cluster. Unused when LocalCluster is enabled.
	ClusterAddress string
	// In process cluster
	LocalCluster LocalCluster

	// Connection information of the record database
	Database DB

	// Allows the map storage backend
	DevMode bool
}

// LocalCluster configures the in process cluster
type LocalCluster struct {
	Enabled     bool
	Workers     int
	MempoolSize int
	// Secret half of the cluster's shared MXE key
	MXESecret [32]byte
	// Key the cluster signs outputs with. Its public half must be
	// Definition.Cluster.PublicKey.
	Key *rsa.PrivateKey
}

// DB holds database connection information
type DB struct {
	Username string
	Password string
	Name     string
	Address  string
	Port     string
}
