package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/session"
	"github.com/fakeyudi/fixexif/internal/shell"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration and any interrupted commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		tool := cfg.ToolPath
		if p, err := cfg.ResolveToolPath(); err == nil {
			tool = p
		}
		if tool == "" {
			tool = "(not found)"
		}
		cmd.Printf("Tool: %s\n", tool)
		cmd.Printf("Patterns: %v\n", cfg.Patterns)
		cmd.Printf("Overwrite originals: %t\n", cfg.Overwrite())
		if cfg.RulesPath != "" {
			cmd.Printf("Rules: %s\n", cfg.RulesPath)
		} else {
			cmd.Println("Rules: built-in")
		}

		var installed []string
		for _, sh := range shell.Supported {
			if shell.IsInstalled(sh) {
				installed = append(installed, sh)
			}
		}
		if len(installed) > 0 {
			cmd.Printf("Completion: %v\n", installed)
		}

		store, err := session.NewStore()
		if err != nil {
			return err
		}
		j, err := store.Load()
		if err != nil {
			if errors.Is(err, session.ErrNoPending) {
				cmd.Println("Pending restores: 0")
				return nil
			}
			return err
		}

		cmd.Printf("Interrupted commit: %s (%s)\n", j.ID, j.Created.Local().Format(time.RFC3339))
		cmd.Printf("Pending restores: %d\n", len(j.Restores))
		for _, r := range j.Restores {
			cmd.Printf("  %s  %s\n", r.ModTime.Local().Format(time.DateTime), r.Path)
		}
		cmd.Println("Run 'fixexif recover' to put these modification times back.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
