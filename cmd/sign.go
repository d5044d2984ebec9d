///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Handles command-line signing of computation outputs

package cmd

import (
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/privaterecord/cmd/conf"
	"gitlab.com/elixxir/privaterecord/provider"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/primitives/utils"
)

var signKeyPath string

func init() {
	signCmd.Flags().StringVarP(&signKeyPath, "key", "k", "",
		"PEM private key of the cluster (default is cluster.paths.key)")
	rootCmd.AddCommand(signCmd)
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Args:  cobra.MinimumNArgs(1),
	Short: "Sign computation outputs with the cluster key",
	Long: `Sign each provided file, an encoded computation output, with the
cluster's private key. The signed output is written next to the input with a
.signed suffix and can be delivered to a node's ComputationCallback.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := signKeyPath
		if path == "" {
			path = viper.GetString("cluster.paths.key")
		}
		key, err := conf.LoadPrivateKey(path)
		if err != nil {
			jww.FATAL.Panicf("Could not load cluster key: %+v", err)
		}

		for _, f := range args {
			if err = signOutputFile(f, key); err != nil {
				jww.FATAL.Panicf("Could not sign %s: %+v", f, err)
			}
			jww.INFO.Printf("Signed %s", f)
		}
	},
}

// signOutputFile signs the output encoded in f and writes it to f.signed
func signOutputFile(f string, key *rsa.PrivateKey) error {
	data, err := utils.ReadFile(f)
	if err != nil {
		return err
	}
	so := &provider.SignedOutput{}
	if err = so.Unmarshal(data); err != nil {
		return err
	}
	if err = so.Sign(csprng.NewSystemRNG(), key); err != nil {
		return err
	}
	return utils.WriteFile(f+".signed", so.Marshal(), utils.FilePerms,
		utils.DirPerms)
}
