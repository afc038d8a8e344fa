// internal/cli/questions.go
package clausecheck

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tfletch/clausecheck/internal/prompt"
)

// questionsCmd represents the 'questions' command.
var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the compliance question suite",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		questions := prompt.DefaultQuestions()
		if path := cfg.QuestionsPath; path != "" {
			loaded, err := prompt.LoadQuestions(path)
			if err != nil {
				return err
			}
			questions = loaded
		}
		renderQuestions(cmd.OutOrStdout(), questions)
		return nil
	},
}

var questionTitle = color.New(color.FgCyan, color.Bold).SprintFunc()

func renderQuestions(w io.Writer, questions []prompt.Question) {
	for _, q := range questions {
		fmt.Fprintf(w, "%s (%s)\n", questionTitle(q.Title), q.ID)
		for i, sub := range q.SubRequirements {
			fmt.Fprintf(w, "  %d. %s\n", i+1, sub)
		}
		fmt.Fprintf(w, "  keywords: %d\n\n", len(q.Keywords))
	}
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}
