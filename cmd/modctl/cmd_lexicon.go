package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivankudzin/miraclemap/internal/services/contentfilter"
)

type lexiconSummary struct {
	Version   string   `json:"version"`
	Languages []string `json:"languages"`
	Terms     int      `json:"terms"`
	Patterns  []string `json:"patterns"`
}

func newLexiconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect lexicon files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a lexicon override file and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lexicon, err := contentfilter.LoadLexiconFile(args[0])
			if err != nil {
				return fmt.Errorf("lexicon %s is invalid: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), summarize(lexicon))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the summary of the built-in lexicon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), summarize(contentfilter.DefaultLexicon()))
		},
	})

	return cmd
}

func summarize(lexicon *contentfilter.Lexicon) lexiconSummary {
	patterns := lexicon.Patterns()
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		names = append(names, p.Name)
	}
	return lexiconSummary{
		Version:   lexicon.Version(),
		Languages: lexicon.Languages(),
		Terms:     lexicon.TermCount(),
		Patterns:  names,
	}
}
