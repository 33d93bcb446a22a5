package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/concord"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the concord version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("concord", concord.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
