///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package cmd

// cluster.go runs a standalone computation cluster that serves a remote node

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/privaterecord/circuit"
	"gitlab.com/elixxir/privaterecord/cmd/conf"
	"gitlab.com/elixxir/privaterecord/comms"
	"gitlab.com/elixxir/privaterecord/provider/local"
)

func init() {
	rootCmd.AddCommand(clusterCmd)
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Runs a computation cluster for a remote node",
	Long: `Runs the lookup circuit as a standalone cluster. The cluster admits
computations on cluster.address and delivers signed outputs to the node at
cluster.nodeAddress.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !validConfig {
			jww.FATAL.Panic("Invalid Config File")
		}

		stop, err := StartCluster(viper.GetViper())
		if err != nil {
			jww.FATAL.Panicf("Failed to start cluster: %+v", err)
		}

		sig := <-ReceiveExitSignal()
		jww.INFO.Printf("Received %s, stopping cluster", sig)
		stop()
	},
}

// StartCluster serves a local cluster configured by vip and returns the
// function that stops it
func StartCluster(vip *viper.Viper) (func(), error) {
	params := conf.Params{}
	params.Cluster.ID = vip.GetString("cluster.id")
	params.Cluster.Offset = vip.GetUint32("cluster.offset")

	listen := vip.GetString("cluster.address")
	nodeAddress := vip.GetString("cluster.nodeAddress")
	if listen == "" || nodeAddress == "" {
		return nil, errors.New(
			"cluster.address and cluster.nodeAddress must be set")
	}

	clusterID, err := params.ClusterID()
	if err != nil {
		return nil, err
	}
	key, err := conf.LoadPrivateKey(vip.GetString("cluster.paths.key"))
	if err != nil {
		return nil, err
	}
	secret, err := conf.LoadMXESecret(vip.GetString("localCluster.mxeKey"))
	if err != nil {
		return nil, err
	}
	boundary, err := circuit.LoadBoundary(secret)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to load MXE key")
	}

	// The node answers account reads and registry queries and receives
	// callbacks. Outputs carry the cluster's signature so the client
	// needs no key.
	node, err := comms.NewClient(nodeAddress, nil, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not connect to node %s",
			nodeAddress)
	}

	cluster := local.New(local.Params{
		ID:          clusterID,
		Offset:      params.Cluster.Offset,
		Key:         key,
		Boundary:    boundary,
		Registry:    node,
		Accounts:    node,
		Sink:        node,
		Workers:     vip.GetInt("localCluster.workers"),
		MempoolSize: vip.GetInt("localCluster.mempoolSize"),
	})
	cluster.Start()

	network, err := comms.StartCluster(listen, cluster)
	if err != nil {
		cluster.Stop()
		_ = node.Close()
		return nil, err
	}

	mxe := cluster.BoundaryKey()
	jww.INFO.Printf("Cluster %s at offset %d serving on %s", clusterID,
		params.Cluster.Offset, network)
	jww.INFO.Printf("MXE public key: %s", hex.EncodeToString(mxe[:]))

	return func() {
		network.Shutdown()
		cluster.Stop()
		if err := node.Close(); err != nil {
			jww.WARN.Printf("Could not close node connection: %+v", err)
		}
	}, nil
}
