// Package cli contains the logsift command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logsift-systems/logsift/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "Per-user log ingestion, search and statistics service",
	Long: `logsift ingests log archives into a per-user record store,
answers filtered searches over the stored records, and maintains cached
statistics computed from named aggregations.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(broadcastCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
}
