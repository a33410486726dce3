package main

import (
	"fmt"
	"io"

	"github.com/aretw0/folio/internal/cli"
	"github.com/aretw0/folio/internal/presentation/graph"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dialog graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the dialogs and their links. With
--conversation, the dialog stack of that stored conversation is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conversationID, _ := cmd.Flags().GetString("conversation")

		app, err := cli.NewApp(cmd.Context(), cfg, cli.WithLogOutput(io.Discard))
		if err != nil {
			return err
		}
		defer app.Close()

		defs := app.Bot.Dialogs()
		infos := make([]domain.DialogInfo, len(defs))
		for i, d := range defs {
			infos[i] = d.Info()
		}

		var overlay *graph.Overlay
		if conversationID != "" {
			state, err := app.Bot.State(cmd.Context(), conversationID)
			if err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}
			overlay = graph.OverlayFromState(state)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(infos, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("conversation", "", "Highlight the dialog stack of this conversation")
}
