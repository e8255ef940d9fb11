// Package main provides the sheaf CLI, a headless frontend for scan
// sessions: capture pages from a device, group them into documents,
// and export artifacts.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sheafscan/sheaf/internal/device"
	"github.com/sheafscan/sheaf/pkg/scan"
	"github.com/sheafscan/sheaf/pkg/types"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// jsonOutput switches command output to JSON.
	jsonOutput bool

	// verbose enables debug logging.
	verbose bool

	// sess is the global session, initialized on startup.
	sess types.Session

	logger zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sheaf",
	Short: "Sheaf captures, organizes, and exports scanned documents",
	Long: `Sheaf drives a document scanner from the command line: it captures
pages into a session, groups them into documents, and exports PDF or
image artifacts. Scanned batches and exports are recorded in a session
catalog for later inspection.`,
	PersistentPreRunE: initSession,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeSession()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.sheaf/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(historyCmd)
}

// initSession loads config and creates the session.
func initSession(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, err := scan.NewSession(scan.Config{
		Driver:  device.DirDriver{},
		Session: cfg,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	sess = s
	return nil
}

// closeSession releases the session and its catalog.
func closeSession() error {
	if sess != nil {
		return sess.Close()
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sheaf v0.1.0")
	},
}
