package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"autonomous_spa_agent/publisher"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Regenerate index.html and benchmark.html from stored metadata",
	Args:  cobra.NoArgs,
	RunE:  runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pub, err := publisher.New(cfg.Git, nil, verbose, log.Default())
	if err != nil {
		return err
	}
	if err := pub.RefreshGallery(); err != nil {
		return err
	}
	apps, err := pub.Catalog().Scan()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "gallery updated with %d apps in %s\n", len(apps), pub.Root())
	return nil
}
