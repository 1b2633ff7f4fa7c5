////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"gitlab.com/primefall/factor/conf"
	"gitlab.com/primefall/factor/factor"
)

var cfgFile string
var verbose bool
var showVer bool

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "factor <N>",
	Short: "Finds a nontrivial factor of a large integer",
	Long: `Finds a single nontrivial factor of a positive integer by reverse
trial division over wheel-coprime residues, with an optional
congruence-of-squares stage. Prints the factor, or 1 when none was found
within the node's search budget.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			printVersion()
			return
		}
		if len(args) == 1 {
			viper.Set("toFactor", args[0])
		}

		params, err := conf.NewParams(viper.GetViper())
		if err != nil {
			jww.FATAL.Panicf("Invalid params: %+v", err)
		}

		result, err := factor.FindFactor(*params)
		if err != nil {
			jww.FATAL.Panicf("Factoring failed: %+v", err)
		}
		fmt.Println(result)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("Exiting with error: %s", err.Error())
		os.Exit(1)
	}
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.Flags().StringVarP(&cfgFile, "config", "", "",
		"config file (default is $HOME/.factor.yaml)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.Flags().BoolVarP(&showVer, "version", "V", false,
		"Show the version information.")
	rootCmd.Flags().BoolP("congruenceOfSquares", "c", false,
		"Accumulate smooth congruences and run the GF(2) stage")
	rootCmd.Flags().BoolP("gaussianElimination", "g", false,
		"Use full Gaussian elimination instead of the duplicate-row scan")
	rootCmd.Flags().Uint64("nodeCount", 1,
		"Number of cooperating nodes the search range is split across")
	rootCmd.Flags().Uint64("nodeId", 0,
		"This node's index within the node count")
	rootCmd.Flags().Uint64("trialDivisionLevel", 1<<16,
		"Upper bound of the initial trial-division sieve")
	rootCmd.Flags().Uint64("gearFactorizationLevel", 13,
		"Upper prime bound for the rotating gear sequences")
	rootCmd.Flags().Uint64("wheelFactorizationLevel", 11,
		"Upper prime bound for the wheel table, at most 11")
	rootCmd.Flags().Float64("smoothnessBoundMultiplier", 1.0,
		"Factor base size as a multiple of log2(N)")
	rootCmd.Flags().Float64("batchSizeMultiplier", 0.75,
		"Semi-smooth flush threshold as a multiple of twice the batch size")
	rootCmd.Flags().Uint("threads", 0,
		"Worker pool size, 0 for the hardware parallelism")
	rootCmd.Flags().Uint64("seed", 0,
		"Base PRNG seed for reproducible runs, 0 for time-derived")

	for _, flag := range []string{"congruenceOfSquares", "gaussianElimination",
		"nodeCount", "nodeId", "trialDivisionLevel", "gearFactorizationLevel",
		"wheelFactorizationLevel", "smoothnessBoundMultiplier",
		"batchSizeMultiplier", "threads", "seed", "verbose"} {
		err := viper.BindPFlag(flag, rootCmd.Flags().Lookup(flag))
		handleBindingError(err, flag)
	}
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile == "" {
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}
		cfgFile = home + "/.factor.yaml"
	}

	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv() // read in environment variables that match

	// A missing config file is fine; every parameter has a flag.
	if err := viper.ReadInConfig(); err != nil {
		jww.DEBUG.Printf("Unable to read config file (%s): %s", cfgFile,
			err.Error())
	}
}

// initLog initializes the logging thresholds. Clamp warnings always reach
// standard output.
func initLog() {
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelWarn)
		jww.SetStdoutThreshold(jww.LevelWarn)
	}
}
