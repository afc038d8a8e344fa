// internal/cli/chat.go
package clausecheck

import (
	"github.com/spf13/cobra"
	"github.com/tfletch/clausecheck/cli"
)

var startChat = cli.StartChat

// chatCmd represents the 'chat' command.
var chatCmd = &cobra.Command{
	Use:   "chat [document]",
	Short: "Chat interactively with an ingested document",
	Long: `The 'chat' command embeds the document into an in-memory store and starts
an interactive session where answers come only from the document's content.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		startChat(cmd.Context(), getConfig(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
