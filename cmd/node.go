///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package cmd

// node.go starts the node from a viper configuration

import (
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/privaterecord/cmd/conf"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/elixxir/privaterecord/io"
)

// StartNode builds and runs a node instance from the configuration in vip
func StartNode(vip *viper.Viper) (*internal.Instance, error) {
	jww.INFO.Printf("Starting private record node...")

	// Load params object from viper conf
	params, err := conf.NewParams(vip)
	if err != nil {
		return nil, errors.Errorf("Failed to load params: %+v", err)
	}

	jww.INFO.Printf("Loaded params: %+v", params)

	def, err := params.ConvertToDefinition()
	if err != nil {
		return nil, errors.Errorf("Failed to convert params to definition: %+v",
			err)
	}

	jww.INFO.Printf("Node %s serving program %s", def.ID, def.Program)
	jww.INFO.Printf("Cluster %s at offset %d", def.Cluster.ID,
		def.Cluster.Offset)

	instance, err := internal.CreateInstance(def, io.NewImplementation)
	if err != nil {
		return nil, errors.Errorf("Could not create node instance: %+v", err)
	}

	if err = instance.Run(); err != nil {
		instance.Shutdown()
		return nil, errors.Errorf("Could not start node instance: %+v", err)
	}

	jww.INFO.Printf("Node %s running on %s", def.ID, def.ListeningAddress)
	return instance, nil
}
