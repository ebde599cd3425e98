// Package cli wires the kvload commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kvload/kvload/internal/config"
)

var version = "0.1.0"

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "kvload",
	Short:   "Functional and load testing for Sauropod-style key/value stores",
	Version: version,
	Long: `kvload drives HTTP key/value stores through configurable test scenarios.

A single INI configuration file describes the target store, the scenarios,
and the functional-test and benchmark settings:

  kvload check -c tests.conf    validate and print the configuration
  kvload test  -c tests.conf    run scenarios once, verifying behavior
  kvload bench -c tests.conf    run benchmark cycles and collect metrics`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig loads and validates the config file named by the -c flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil, fmt.Errorf("a configuration file is required (-c)")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(testCmd)
	RootCmd.AddCommand(benchCmd)
}
