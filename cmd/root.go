///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var cfgFile string
var verbose bool
var validConfig bool
var showVer bool
var devMode bool

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "privaterecord",
	Short: "Runs a private record node",
	Long: `The node stores encrypted patient records and dispatches confidential
lookups of them to a computation cluster, relaying each verified result as an
event for the receiver.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			printVersion()
			return
		}
		if !validConfig {
			jww.FATAL.Panic("Invalid Config File")
		}

		instance, err := StartNode(viper.GetViper())
		if err != nil {
			jww.FATAL.Panicf("Failed to start node: %+v", err)
		}

		// SIGUSR1 switches to debug logging on a running node
		ReceiveSignal(func() {
			jww.SetLogThreshold(jww.LevelDebug)
			jww.SetStdoutThreshold(jww.LevelDebug)
		}, syscall.SIGUSR1)

		// Block until the node is told to stop
		sig := <-ReceiveExitSignal()
		jww.INFO.Printf("Received %s, stopping node %s", sig, instance)
		instance.Shutdown()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("Node Exiting with error: %s", err.Error())
		os.Exit(1)
	}
	jww.INFO.Printf("Node exiting without error...")
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "",
		"config file (default is $HOME/.xxmpc/node.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.Flags().BoolVarP(&showVer, "version", "V", false,
		"Show the node version information.")
	rootCmd.Flags().BoolVar(&devMode, "devMode", false,
		"Keep state in memory and generate missing keys")

	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup(
		"verbose"))
	handleBindingError(err, "verbose")

	err = viper.BindPFlag("devMode", rootCmd.Flags().Lookup("devMode"))
	handleBindingError(err, "devMode")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	//Use default config location if none is passed
	if cfgFile == "" {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}

		cfgFile = home + "/.xxmpc/node.yaml"
	}

	validConfig = true
	if _, err := os.Stat(cfgFile); err != nil {
		jww.ERROR.Printf("Invalid config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
		return
	}

	viper.SetConfigFile(cfgFile)

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		jww.ERROR.Printf("Unable to read config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
	}
}

// initLog initializes logging thresholds and the log path.
func initLog() {
	// If verbose flag set then log more info for debugging
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelInfo)
	}

	if viper.Get("node.paths.log") != nil {
		// Create log file, overwrites if existing
		logPath := viper.GetString("node.paths.log")
		logFile, err := os.Create(logPath)
		if err != nil {
			fmt.Printf("Invalid or missing log path %s, "+
				"default path used.\n", logPath)
		} else {
			jww.SetLogOutput(logFile)
		}
	}
}
