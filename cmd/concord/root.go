package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/concord/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "concord",
	Short: "Concord negotiates graph schemas with a human in the loop",
	Long: `Concord drives a bounded negotiation between an agent and a human
reviewer: first over the goal of a knowledge graph, then over its schema.
Nothing is finalized until the reviewer approves it.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a concord.yaml config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log lifecycle events to stderr")
}

// commandConfig resolves the persistent flags shared by every command.
func commandConfig(cmd *cobra.Command) (*cli.Config, bool, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, debug, nil
}
