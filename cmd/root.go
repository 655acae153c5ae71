// Package cmd contains the CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/offtune/internal/app"
	"github.com/tejashwikalptaru/offtune/internal/config"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "offtune",
	Short: "Offline-first music player",
	Long: `offtune downloads music through a conversion backend, stores it
locally, and plays it back offline. Songs can be split into vocal and
instrumental stems and carry scraped lyrics.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildApp loads configuration and wires the application. Callers own
// the returned app and must Shutdown it.
func buildApp(mockAudio bool) (*app.Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	application, err := app.NewApplication(cfg, app.Options{UseMockAudio: mockAudio})
	if err != nil {
		return nil, err
	}
	return application, nil
}
