package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/ivankudzin/miraclemap/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "modctl",
		Short:         "Offline tooling for the moderation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.PathFromEnv(), "path to the service config file")

	loadConfig := func() (config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newClassifyCmd(),
		newLexiconCmd(),
		newTokenCmd(loadConfig),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
