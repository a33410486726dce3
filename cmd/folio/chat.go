package main

import (
	"os"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/cli"
	"github.com/aretw0/folio/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Starts an interactive conversation on stdin/stdout. Conversations are kept in
the configured store, so a chat can be resumed with the same --conversation id.
Type q, quit or exit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conversationID, _ := cmd.Flags().GetString("conversation")
		fresh, _ := cmd.Flags().GetBool("fresh")
		plain, _ := cmd.Flags().GetBool("plain")

		interactive := tui.IsTerminal(os.Stdout) && !plain
		var render func(string) (string, error)
		if interactive {
			render = tui.NewRenderer()
			tui.PrintBanner(os.Stdout, folio.Version)
		}
		term := cli.NewTerminal(os.Stdout, render)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.NewApp(sigCtx, cfg, cli.WithSender(term))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunChat(sigCtx, app, term, cli.ChatOptions{
			ConversationID: conversationID,
			UserID:         os.Getenv("USER"),
			Fresh:          fresh,
			In:             os.Stdin,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("conversation", "terminal", "Conversation id to start or resume")
	chatCmd.Flags().Bool("fresh", false, "Forget the stored conversation first")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
}
