package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/concord/internal/cli"
	"github.com/aretw0/concord/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run [opening message]",
	Short: "Start or resume an interactive negotiation session",
	Long: `Run opens a terminal conversation with the agent. Pass the opening
message as arguments, register CSV artifacts with --file, and resume an
earlier session with --session.`,
	Example: `  concord run --file people.csv --file companies.csv "I need an org chart graph"
  concord run --session 2f1c... "let's continue"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, debug, err := commandConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		files, _ := cmd.Flags().GetStringArray("file")
		docs, _ := cmd.Flags().GetStringArray("doc")
		plain, _ := cmd.Flags().GetBool("plain")

		ctx, cancel := cli.SignalContext()
		defer cancel()

		logger := cli.NewLogger(debug)
		var hooks domain.LifecycleHooks
		if debug {
			hooks = cli.DebugHooks(logger)
		}
		engine, cleanup, err := cli.NewEngine(cfg, logger, hooks)
		if err != nil {
			return err
		}
		defer cleanup()

		err = cli.RunSession(ctx, engine, cli.RunOptions{
			SessionID: sessionID,
			Opening:   strings.Join(args, " "),
			Files:     files,
			Docs:      docs,
			Plain:     plain,
		})
		if cli.IsInterrupted(err) {
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().String("session", "", "Resume an existing session by ID")
	runCmd.Flags().StringArray("file", nil, "CSV artifact to register (repeatable)")
	runCmd.Flags().StringArray("doc", nil, "Markdown or text document to attach (repeatable)")
	runCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
	rootCmd.AddCommand(runCmd)
}
