package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/cli"
	"github.com/aretw0/concord/internal/presentation/graph"
	"github.com/aretw0/concord/pkg/domain"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored negotiation sessions",
}

var sessionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List session IDs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, func(engine *concord.Engine) error {
			ids, err := engine.Sessions().List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		})
	},
}

var sessionsInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show a session's artifacts and committed slots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(engine *concord.Engine) error {
			state, err := engine.Sessions().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSession(args[0], state)
			return nil
		})
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(engine *concord.Engine) error {
			if err := engine.Sessions().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		})
	},
}

func withEngine(cmd *cobra.Command, fn func(*concord.Engine) error) error {
	cfg, debug, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	engine, cleanup, err := cli.NewEngine(cfg, cli.NewLogger(debug), domain.LifecycleHooks{})
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(engine)
}

func printSession(id string, state *domain.SessionState) {
	fmt.Println("session:", id)

	names := state.CSVNames()
	if len(names) == 0 {
		fmt.Println("artifacts: none")
	} else {
		fmt.Println("artifacts:")
		for _, name := range names {
			f := state.CSVFiles[name]
			fmt.Printf("  %s (%d rows)\n", name, len(f.Rows))
		}
	}

	if docs := state.DocNames(); len(docs) > 0 {
		fmt.Println("documents:")
		for _, name := range docs {
			fmt.Printf("  %s\n", name)
		}
	}

	if state.Goal == nil {
		fmt.Println("goal: not committed")
	} else {
		fmt.Println("goal:")
		fmt.Printf("  kind of graph: %s\n", state.Goal.KindOfGraph)
		fmt.Printf("  description: %s\n", state.Goal.Description)
	}

	if state.Schema == nil {
		fmt.Println("schema: not committed")
	} else {
		fmt.Println("schema:")
		fmt.Println(graph.Mermaid(*state.Schema))
	}
}

func init() {
	sessionsCmd.AddCommand(sessionsLsCmd, sessionsInspectCmd, sessionsRmCmd)
	rootCmd.AddCommand(sessionsCmd)
}
