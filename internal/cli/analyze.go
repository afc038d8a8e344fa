// internal/cli/analyze.go
package clausecheck

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tfletch/clausecheck/internal/analyzer"
	"github.com/tfletch/clausecheck/internal/document"
	"github.com/tfletch/clausecheck/internal/policy"
	"github.com/tfletch/clausecheck/internal/prompt"
	"github.com/tfletch/clausecheck/internal/providers/ollama"
	"github.com/tfletch/clausecheck/internal/util"
)

var questionsFile string

// analyzeCmd represents the 'analyze' command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [document]",
	Short: "Run the compliance question suite against a document",
	Long: `The 'analyze' command segments the document, retrieves relevant context for
each compliance question, evaluates it with the configured model, and prints
one classified verdict per question. Each run is appended to a JSONL report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		questions := prompt.DefaultQuestions()
		if path := firstNonEmpty(questionsFile, cfg.QuestionsPath); path != "" {
			loaded, err := prompt.LoadQuestions(path)
			if err != nil {
				return err
			}
			questions = loaded
		}

		passages, err := document.Load(args[0])
		if err != nil {
			return err
		}

		provider := ollama.New(cfg)
		defer provider.Close()

		a, err := analyzer.New(cfg, questions, provider)
		if err != nil {
			return err
		}

		results, err := a.Analyze(cmd.Context(), passages)
		if err != nil {
			return err
		}

		renderResults(cmd.OutOrStdout(), results)

		reportPath, err := analyzer.WriteReport(cfg.ResultsDirPath(), cfg.Model, args[0], results)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport appended to %s\n", reportPath)
		return nil
	},
}

var (
	fullyCompliant     = color.New(color.FgGreen).SprintFunc()
	partiallyCompliant = color.New(color.FgYellow).SprintFunc()
	nonCompliant       = color.New(color.FgRed).SprintFunc()
)

func stateLabel(state policy.State) string {
	switch state {
	case policy.FullyCompliant:
		return fullyCompliant(string(state))
	case policy.PartiallyCompliant:
		return partiallyCompliant(string(state))
	default:
		return nonCompliant(string(state))
	}
}

// renderResults prints one verdict block per question.
func renderResults(w io.Writer, results []analyzer.Result) {
	for _, res := range results {
		fmt.Fprintf(w, "%s  [%s, confidence %d]\n", res.Question, stateLabel(res.ComplianceState), res.Confidence)
		fmt.Fprintf(w, "  %s\n", util.WrapToWidth(res.Rationale, 100))
		for _, quote := range res.RelevantQuotes {
			fmt.Fprintf(w, "    - %s\n", util.TruncateRunes(quote, 120))
		}
		fmt.Fprintln(w)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func init() {
	analyzeCmd.Flags().StringVar(&questionsFile, "questions", "", "JSON file with a custom question suite")
	rootCmd.AddCommand(analyzeCmd)
}
