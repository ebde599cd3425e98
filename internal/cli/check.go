package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration file and print it back",
	Long: `Parse the configuration, run validation, and print the normalized
configuration to stdout. Sections and keys the runner does not interpret
are preserved, so the output round-trips.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		dump, err := cfg.Dump()
		if err != nil {
			return err
		}
		fmt.Print(dump)

		fmt.Fprintf(os.Stderr, "ok: %d scenario(s), %d bench cycle(s), target %s\n",
			len(cfg.Scenarios), len(cfg.Bench.Cycles), cfg.TargetHost())
		return nil
	},
}

func init() {
	checkCmd.Flags().StringP("config", "c", "", "Configuration file")
}
