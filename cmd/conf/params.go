///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package conf

import (
	"encoding/base64"
	"net"
	"strconv"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/crypto/cmix"
	"gitlab.com/elixxir/privaterecord/address"
	"gitlab.com/elixxir/privaterecord/internal"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/crypto/xx"
	"gitlab.com/xx_network/primitives/id"
	"gitlab.com/xx_network/primitives/id/idf"
	"gitlab.com/xx_network/primitives/utils"
)

// Size of keys generated for dev mode nodes
const devKeySize = 4096

// This object is used by the node instance.
// It should be constructed using a viper object
type Params struct {
	Node         Node
	Database     Database
	Deployment   Deployment
	Cluster      Cluster
	LocalCluster LocalCluster `yaml:"localCluster"`
	Events       Events

	DevMode bool `yaml:"devMode"`
}

// NewParams gets elements of the viper object
// and updates the params object. It returns params
// unless it fails to parse in which it case returns error
func NewParams(vip *viper.Viper) (*Params, error) {

	var require = func(s string, key string) {
		if s == "" {
			jww.FATAL.Panicf("%s must be set in params", key)
		}
	}

	params := Params{}

	params.Node.Port = vip.GetInt("node.port")
	if params.Node.Port == 0 {
		jww.FATAL.Panic("Must specify a port to run on")
	}

	// Construct listening address; defaults to 0.0.0.0 if not set
	listeningIP := vip.GetString("node.listeningAddress")
	if listeningIP == "" {
		listeningIP = "0.0.0.0"
	}
	params.Node.ListeningAddress = net.JoinHostPort(listeningIP,
		strconv.Itoa(params.Node.Port))

	params.Node.Paths.Idf = vip.GetString("node.paths.idf")
	require(params.Node.Paths.Idf, "node.paths.idf")

	params.Node.Paths.Key = vip.GetString("node.paths.key")
	require(params.Node.Paths.Key, "node.paths.key")

	params.Node.Paths.Log = vip.GetString("node.paths.log")
	if params.Node.Paths.Log == "" {
		params.Node.Paths.Log = "./node.log"
	}

	params.Deployment.ProgramID = vip.GetString("deployment.programID")
	require(params.Deployment.ProgramID, "deployment.programID")

	params.Database = loadDatabase(vip)

	params.Cluster.ID = vip.GetString("cluster.id")
	params.Cluster.Offset = vip.GetUint32("cluster.offset")
	params.Cluster.Address = vip.GetString("cluster.address")
	params.Cluster.NodeAddress = vip.GetString("cluster.nodeAddress")
	params.Cluster.Paths.Cert = vip.GetString("cluster.paths.cert")
	params.Cluster.Paths.Key = vip.GetString("cluster.paths.key")

	params.LocalCluster.Enabled = vip.GetBool("localCluster.enabled")
	params.LocalCluster.Workers = vip.GetInt("localCluster.workers")
	params.LocalCluster.MempoolSize = vip.GetInt("localCluster.mempoolSize")
	params.LocalCluster.MXEKey = vip.GetString("localCluster.mxeKey")
	if params.LocalCluster.Enabled {
		require(params.Cluster.Paths.Key, "cluster.paths.key")
		require(params.LocalCluster.MXEKey, "localCluster.mxeKey")
	} else {
		require(params.Cluster.Address, "cluster.address")
		require(params.Cluster.Paths.Cert, "cluster.paths.cert")
	}

	params.Events.Path = vip.GetString("events.path")

	params.DevMode = vip.GetBool("devMode")

	return &params, nil
}

// Create a new Definition object from the Params object
func (p *Params) ConvertToDefinition() (*internal.Definition, error) {

	def := &internal.Definition{}
	var err error

	def.ListeningAddress = p.Node.ListeningAddress
	def.LogPath = p.Node.Paths.Log
	def.EventLogPath = p.Events.Path
	def.Database = p.Database.toDefinition()
	def.DevMode = p.DevMode

	//Set the node's private/public key
	def.PrivateKey, err = loadNodeKey(p.Node.Paths.Key, p.DevMode)
	if err != nil {
		return nil, err
	}
	def.PublicKey = def.PrivateKey.GetPublic()

	// Check if the IDF exists
	if utils.Exists(p.Node.Paths.Idf) {
		// If the IDF exists, then get the ID and save it
		def.Salt, def.ID, err = idf.UnloadIDF(p.Node.Paths.Idf)
		if err != nil {
			return nil, errors.Errorf("Could not unload IDF: %+v", err)
		}
	} else {
		// If the IDF does not exist, then generate a new ID, save it to an IDF,
		// and save the ID to the definition

		// Generate a random 256-bit number for the salt
		def.Salt = cmix.NewSalt(csprng.NewSystemRNG(), 32)

		// Generate new ID
		newID, err2 := xx.NewID(def.PublicKey, def.Salt[:32], id.Node)
		if err2 != nil {
			return nil, errors.Errorf("Failed to create new ID: %+v", err2)
		}

		// Save new ID to file
		err2 = idf.LoadIDF(p.Node.Paths.Idf, def.Salt, newID)
		if err2 != nil {
			return nil, errors.Errorf("Failed to save new ID to file: %+v",
				err2)
		}

		def.ID = newID
	}

	def.Program, err = DecodeID(p.Deployment.ProgramID)
	if err != nil {
		return nil, errors.WithMessage(err, "Invalid deployment.programID")
	}

	def.Cluster.Offset = p.Cluster.Offset
	def.Cluster.ID, err = p.ClusterID()
	if err != nil {
		return nil, err
	}

	if p.LocalCluster.Enabled {
		key, err := LoadPrivateKey(p.Cluster.Paths.Key)
		if err != nil {
			return nil, err
		}
		secret, err := LoadMXESecret(p.LocalCluster.MXEKey)
		if err != nil {
			return nil, err
		}
		def.LocalCluster = internal.LocalCluster{
			Enabled:     true,
			Workers:     p.LocalCluster.Workers,
			MempoolSize: p.LocalCluster.MempoolSize,
			MXESecret:   secret,
			Key:         key,
		}
		def.Cluster.PublicKey = key.GetPublic()
	} else {
		def.Cluster.PublicKey, err = LoadPublicKey(p.Cluster.Paths.Cert)
		if err != nil {
			return nil, err
		}
		def.ClusterAddress = p.Cluster.Address
	}

	return def, nil
}

// ClusterID returns the configured cluster ID, or the cluster account for
// the configured offset if none is set
func (p *Params) ClusterID() (*id.ID, error) {
	if p.Cluster.ID == "" {
		return address.ClusterAddress(p.Cluster.Offset), nil
	}
	clusterID, err := DecodeID(p.Cluster.ID)
	if err != nil {
		return nil, errors.WithMessage(err, "Invalid cluster.id")
	}
	return clusterID, nil
}

// DecodeID parses a base64 encoded ID
func DecodeID(s string) (*id.ID, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not decode ID %q", s)
	}
	return id.Unmarshal(b)
}

// LoadPrivateKey reads a PEM RSA private key
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pem, err := utils.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("Could not read key file %s: %+v", path, err)
	}
	key, err := rsa.LoadPrivateKeyFromPem(pem)
	if err != nil {
		return nil, errors.Errorf("Could not decode key from %s: %+v", path, err)
	}
	return key, nil
}

// LoadPublicKey reads a PEM RSA public key
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	pem, err := utils.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("Could not read cert file %s: %+v", path, err)
	}
	key, err := rsa.LoadPublicKeyFromPem(pem)
	if err != nil {
		return nil, errors.Errorf("Could not decode public key from %s: %+v",
			path, err)
	}
	return key, nil
}

// LoadMXESecret reads the MXE secret from path, generating and saving one
// if the file does not exist
func LoadMXESecret(path string) ([32]byte, error) {
	var secret [32]byte
	if utils.Exists(path) {
		b, err := utils.ReadFile(path)
		if err != nil {
			return secret, errors.Errorf("Could not read MXE key: %+v", err)
		}
		if len(b) != len(secret) {
			return secret, errors.Errorf("MXE key in %s must be %d bytes, "+
				"is %d", path, len(secret), len(b))
		}
		copy(secret[:], b)
		return secret, nil
	}

	jww.WARN.Printf("No MXE key at %s, generating one", path)
	if _, err := csprng.NewSystemRNG().Read(secret[:]); err != nil {
		return secret, errors.Errorf("Could not generate MXE key: %+v", err)
	}
	err := utils.WriteFile(path, secret[:], utils.FilePerms, utils.DirPerms)
	if err != nil {
		return secret, errors.Errorf("Could not save MXE key: %+v", err)
	}
	return secret, nil
}

// Reads the node's key. Dev mode nodes without a key get a new one.
func loadNodeKey(path string, devMode bool) (*rsa.PrivateKey, error) {
	if utils.Exists(path) || !devMode {
		return LoadPrivateKey(path)
	}

	jww.WARN.Printf("No node key at %s, generating one for dev mode", path)
	key, err := rsa.GenerateKey(csprng.NewSystemRNG(), devKeySize)
	if err != nil {
		return nil, errors.Errorf("Could not generate node key: %+v", err)
	}
	err = utils.WriteFile(path, rsa.CreatePrivateKeyPem(key), utils.FilePerms,
		utils.DirPerms)
	if err != nil {
		return nil, errors.Errorf("Could not save node key: %+v", err)
	}
	return key, nil
}
