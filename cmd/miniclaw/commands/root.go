// Package commands implements the miniclaw CLI with cobra. All logging
// goes to stderr; stdout carries only user-facing output.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/config"
)

// UsageError marks errors caused by bad invocation rather than runtime
// failure, so main can exit with status 2.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// rootOpts carries the global flag values shared by all subcommands.
type rootOpts struct {
	verbose    bool
	configPath string
}

// stateDir is where sessions and the default workspace live. With
// --config it is the config file's directory.
func (o *rootOpts) stateDir() string {
	if o.configPath != "" {
		return filepath.Dir(o.configPath)
	}
	return config.DefaultDir()
}

// loadConfig loads the config or tells the user to onboard.
func (o *rootOpts) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(config.DefaultDir())
	}
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, fmt.Errorf("no configuration found, run `miniclaw onboard` first")
		}
		return nil, err
	}
	return cfg, nil
}

// NewRootCmd creates the CLI root with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOpts{}

	rootCmd := &cobra.Command{
		Use:   "miniclaw",
		Short: "A single-host personal AI agent",
		Long: `miniclaw is a personal AI agent daemon for your own machine.
It answers over Telegram and the local terminal, runs tools inside a
sandboxed workspace, and keeps its memory in plain markdown files.

Getting started:
  miniclaw onboard            set up the provider and channels
  miniclaw gateway            run the daemon
  miniclaw agent -m "hello"   one-shot message from scripts`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.miniclaw/config.json)")

	// Registered before cobra's default so --version gets the -V shorthand.
	rootCmd.Flags().BoolP("version", "V", false, "print the version and exit")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(
		newVersionCmd(version),
		newOnboardCmd(opts),
		newGatewayCmd(opts),
		newAgentCmd(opts),
		newModelsCmd(opts),
	)
	return rootCmd
}

// setupLogging points slog at stderr so stdout stays clean for output.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the miniclaw version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "miniclaw %s\n", version)
		},
	}
}
