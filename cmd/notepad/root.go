package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
	"github.com/aretw0/notepad/pkg/core"
)

// dirEnv overrides the notes directory when --dir is not given.
const dirEnv = "NOTEPAD_DIR"

var (
	verbose    bool
	dirFlag    string
	configFlag string
	formatFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notepad",
	Short: "A small note store with live search",
	Long: `notepad keeps short timestamped notes in a single file and lets you
search them, live, while other processes edit the same notes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Notes directory (default: $NOTEPAD_DIR, the nearest notes directory, or the current directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a JSONC config file")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Collection file format (json|yaml)")
}

// resolveDir picks the notes directory: the flag, then the environment, then
// the nearest directory holding notes above wd, then wd itself.
func resolveDir(flag, env, wd string) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	if root, err := notepad.FindRoot(wd); err == nil {
		return root
	}
	return wd
}

// openService builds the note store from the global flags.
func openService(extra ...notepad.Option) (*core.Service, string) {
	wd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get working directory", err)
	}
	dir := resolveDir(dirFlag, os.Getenv(dirEnv), wd)

	opts := []notepad.Option{notepad.WithLogger(slog.Default())}
	if configFlag != "" {
		opts = append(opts, notepad.WithConfigFile(configFlag))
	}
	if formatFlag != "" {
		opts = append(opts, notepad.WithFormat(formatFlag))
	}
	opts = append(opts, extra...)

	svc, err := notepad.New(dir, opts...)
	if err != nil {
		fatal("Failed to open notes", err)
	}
	return svc, dir
}

// shortID is the handle printed in listings; any unique prefix resolves.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
