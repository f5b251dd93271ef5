package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/config"
	"github.com/fakeyudi/fixexif/internal/exiftool"
	"github.com/fakeyudi/fixexif/internal/profile"
	"github.com/fakeyudi/fixexif/internal/session"
	"github.com/fakeyudi/fixexif/internal/ui"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile, or the built-in defaults.
var activeProfile *profile.Profile

// logger is shared by every command.
var logger = ui.Discard()

var (
	verbose  bool
	toolPath string
)

var rootCmd = &cobra.Command{
	Use:          "fixexif",
	Short:        "Fill in and repair image metadata in bulk with exiftool",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = ui.NewLogger(cmd.ErrOrStderr(), verbose)

		// First run on a terminal: offer to set up the profile.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to fixexif! No profile yet, let's create one.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}

		p, err := profile.LoadOrDefaults()
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		activeProfile = p

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		if toolPath != "" {
			cfg.ToolPath = toolPath
		}
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

// newSession starts an editing session on the configured exiftool. The
// caller must Close it.
func newSession(overwrite bool) (*session.Session, error) {
	path, err := cfg.ResolveToolPath()
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore()
	if err != nil {
		return nil, err
	}
	ch := exiftool.New(exiftool.Options{
		Path:         path,
		Args:         cfg.ToolArgs,
		CloseTimeout: cfg.CloseTimeout(),
		Logger:       logger,
	})
	return session.New(session.Options{
		Tool:      ch,
		Overwrite: overwrite,
		Verbose:   verbose,
		Logger:    logger,
		Journal:   store,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every tag read and edit")
	rootCmd.PersistentFlags().StringVar(&toolPath, "tool", "", "exiftool executable (default: tool_path from config, then PATH)")
}
