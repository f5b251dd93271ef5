package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/profile"
	"github.com/fakeyudi/fixexif/internal/report"
	"github.com/fakeyudi/fixexif/internal/rules"
	"github.com/fakeyudi/fixexif/internal/scan"
	"github.com/fakeyudi/fixexif/internal/session"
	"github.com/fakeyudi/fixexif/internal/tui"
)

var (
	fixPatterns    []string
	fixRulesPath   string
	fixYes         bool
	fixDryRun      bool
	fixFormat      string
	fixNoOverwrite bool
)

var fixCmd = &cobra.Command{
	Use:   "fix [dir]",
	Short: "Apply the rules to every matching image below dir and commit the edits",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		patterns := cfg.Patterns
		if cmd.Flags().Changed("pattern") {
			patterns = fixPatterns
		}
		rulesPath := cfg.RulesPath
		if fixRulesPath != "" {
			rulesPath = fixRulesPath
		}
		format := cfg.ReportFormat
		if fixFormat != "" {
			format = fixFormat
		}

		renderer, err := report.ForFormat(format)
		if err != nil {
			return err
		}
		ruleSet, err := rules.LoadOrDefault(rulesPath)
		if err != nil {
			return err
		}
		matcher, err := scan.NewMatcher(root, patterns)
		if err != nil {
			return err
		}
		files, err := matcher.Files()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			cmd.Println("No matching files.")
			return nil
		}

		sess, err := newSession(cfg.Overwrite() && !fixNoOverwrite)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx := cmd.Context()
		if err := processFiles(ctx, sess, ruleSet, activeProfile, files); err != nil {
			return err
		}
		// The interactive process is not needed while the user reviews.
		if err := sess.Close(); err != nil {
			logger.Warn("stopping exiftool", "err", err)
		}

		if sess.Pending() == 0 {
			cmd.Printf("Checked %d file(s), nothing to change.\n", len(files))
			return nil
		}

		var preview bytes.Buffer
		if err := sess.Preview(&preview, renderer); err != nil {
			return err
		}
		if fixDryRun {
			_, err := cmd.OutOrStdout().Write(preview.Bytes())
			return err
		}

		if !fixYes {
			ok, err := tui.Confirm(sess.Plan(), matcher.Root(), preview.Bytes(), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("Cancelled, no files were changed.")
				return nil
			}
		}

		res, err := sess.SaveChanges(ctx)
		if err != nil {
			return fmt.Errorf("%w (run 'fixexif recover' to restore modification times)", err)
		}
		cmd.Printf("Updated %d file(s), restored %d modification time(s).\n", res.Files, res.Restored)
		return nil
	},
}

// processFiles selects each file in turn and applies ruleSet to it. Files
// that cannot be read are logged and skipped; their queued edits are
// dropped so that a half-inspected file is never committed.
func processFiles(ctx context.Context, sess *session.Session, ruleSet *rules.Set, prof *profile.Profile, files []string) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sess.UseFileName(f); err != nil {
			logger.Warn("skipping file", "path", f, "err", err)
			continue
		}
		if err := ruleSet.Apply(ctx, sess, prof); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("skipping file", "path", filepath.Base(f), "err", err)
			sess.Discard()
		}
	}
	return nil
}

func init() {
	fixCmd.Flags().StringSliceVarP(&fixPatterns, "pattern", "p", nil, "file glob relative to dir, repeatable (default from config: **/*.jpg, **/*.tif)")
	fixCmd.Flags().StringVar(&fixRulesPath, "rules", "", "YAML rules file (default: built-in rules)")
	fixCmd.Flags().BoolVarP(&fixYes, "yes", "y", false, "commit without asking")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "print the pending edits and exit")
	fixCmd.Flags().StringVarP(&fixFormat, "format", "f", "", "preview format: text, json or markdown")
	fixCmd.Flags().BoolVar(&fixNoOverwrite, "no-overwrite", false, "let exiftool keep *_original backup copies")
	rootCmd.AddCommand(fixCmd)
}
