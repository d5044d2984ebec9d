////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

// Contains Node config params
type Node struct {
	Paths            Paths
	Port             int
	ListeningAddress string `yaml:"listeningAddress"` // Node's internal address (with port)
}

// Contains the deployment the node serves
type Deployment struct {
	// base64 encoded program ID
	ProgramID string `yaml:"programID"`
}

// Contains the cluster outputs are accepted from
type Cluster struct {
	// base64 encoded cluster ID
	ID      string
	Offset  uint32
	Address string
	// Address of the node a standalone cluster reads accounts from and
	// delivers callbacks to
	NodeAddress string `yaml:"nodeAddress"`
	Paths       ClusterPaths
}

// Contains the in process cluster's config params
type LocalCluster struct {
	Enabled     bool
	Workers     int
	MempoolSize int `yaml:"mempoolSize"`
	// Path of the file holding the 32 byte MXE secret
	MXEKey string `yaml:"mxeKey"`
}

// Contains the event log's config params
type Events struct {
	Path string
}
