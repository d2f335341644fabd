package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivankudzin/miraclemap/internal/app/apiapp"
	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
)

func newClassifyCmd() *cobra.Command {
	var (
		lexiconPath string
		title       string
	)

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Score text with the content classifier",
		Long: `Score text exactly as submissions are scored and print the verdict as JSON.

Text is taken from the arguments, or from stdin when no arguments are given.

Examples:
  modctl classify "Check out this AMAZING deal"
  echo "buy now" | modctl classify --lexicon ./lexicon.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lexicon, err := apiapp.LoadLexicon(lexiconPath)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimSpace(string(raw))
			}

			classifier := contentfilter.NewClassifier(lexicon)
			var verdict contentfilter.Verdict
			if title != "" {
				verdict = classifier.ClassifySubmission(title, text)
			} else {
				verdict = classifier.Classify(text)
			}
			return writeJSON(cmd.OutOrStdout(), verdict)
		},
	}
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "lexicon override file (defaults to the built-in lexicon)")
	cmd.Flags().StringVar(&title, "title", "", "score as a submission with this title and the text as description")
	return cmd
}
