///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X gitlab.com/elixxir/privaterecord/cmd.SEMVER=..."
var (
	SEMVER       = "0.1.0"
	GITVERSION   = "unknown"
	DEPENDENCIES = "see go.mod"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion() {
	fmt.Printf("Private Record Node v%s -- %s\n\n", SEMVER, GITVERSION)
	fmt.Printf("Dependencies:\n\n%s\n", DEPENDENCIES)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of the private record node",
	Long: `Print the version number of the private record node. This also
prints the versions of all of its dependencies.`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}
