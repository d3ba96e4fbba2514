// Package cmd provides the spa-agent command line.
package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"autonomous_spa_agent/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "spa-agent",
	Short: "Autonomous single-page app generator",
	Long: `spa-agent asks a language model for a new app idea, generates a
self-contained HTML app for it, validates the result and commits it to a
gallery repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	log.Printf("[cli] loaded config: provider=%s model=%s repo=%s", cfg.Backend.Provider, cfg.Backend.Model, cfg.Git.RepoPath)
	return cfg, nil
}
