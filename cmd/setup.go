package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set the artist, copyright and device defaults (re-run anytime to edit)",
	// Bypass the normal PersistentPreRunE so setup works before a profile exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// runSetup runs the interactive setup wizard on the command's input and
// output and saves the result.
func runSetup(cmd *cobra.Command) error {
	var existing *profile.Profile
	if profile.Exists() {
		if p, err := profile.Load(); err == nil {
			existing = p
		}
	}

	out := cmd.OutOrStdout()
	prof, err := profile.RunSetup(existing, cmd.InOrStdin(), out)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Fprintln(out, "  ✓ Profile saved.")
	fmt.Fprintln(out, "  Run 'fixexif fix --dry-run' in a photo folder to see what would change.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
