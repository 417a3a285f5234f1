package config

import (
	"fmt"
	"os"

	"github.com/pollherd/pollherd/examples"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configFile string // --config flag value

	Cmd = &cobra.Command{
		Use:   "config",
		Short: "Generate a harness configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigGenerate,
	}
)

func init() {
	Cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "output config file path")
}

func runConfigGenerate(cmd *cobra.Command, args []string) error {
	logger := log.With().Str("component", "generate").Logger()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("file already exists: %s", configFile)
	}

	content, err := examples.HarnessConfig()
	if err != nil {
		return fmt.Errorf("load config template: %w", err)
	}

	if err := os.WriteFile(configFile, content, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	logger.Info().Str("file", configFile).Msg("generated harness configuration")
	return nil
}
