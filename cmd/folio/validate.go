package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/folio/internal/cli"
	"github.com/aretw0/folio/internal/portfolio"
	"github.com/aretw0/folio/internal/validator"
	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the dialog set",
	Long: `Loads the configuration, builds the bot and crawls the dialogs from their entry
points, reporting broken links, unreachable dialogs and shadowed triggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runValidate(cmd.Context(), cmd); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Dialogs are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The storage backend is not contacted.
	app, err := cli.NewApp(ctx, cfg, cli.WithStateStore(memory.NewStore()), cli.WithLogOutput(io.Discard))
	if err != nil {
		return err
	}
	defer app.Close()

	defs := app.Bot.Dialogs()
	infos := make([]domain.DialogInfo, len(defs))
	for i, d := range defs {
		infos[i] = d.Info()
	}
	return validator.ValidateDialogs(infos, portfolio.ImageReceivedID)
}
