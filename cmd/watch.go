package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/rules"
	"github.com/fakeyudi/fixexif/internal/scan"
)

var (
	watchPatterns  []string
	watchRulesPath string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Fix new and changed images below dir as they appear",
	Long: `Watch dir recursively and apply the rules to every matching image that is
created or written. Edits are committed without confirmation after each
quiet period. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		patterns := cfg.Patterns
		if cmd.Flags().Changed("pattern") {
			patterns = watchPatterns
		}
		rulesPath := cfg.RulesPath
		if watchRulesPath != "" {
			rulesPath = watchRulesPath
		}

		ruleSet, err := rules.LoadOrDefault(rulesPath)
		if err != nil {
			return err
		}
		matcher, err := scan.NewMatcher(root, patterns)
		if err != nil {
			return err
		}
		sess, err := newSession(cfg.Overwrite())
		if err != nil {
			return err
		}
		defer sess.Close()

		w := &scan.Watcher{Matcher: matcher, Logger: logger}
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", matcher.Root())
		return w.Run(cmd.Context(), func(ctx context.Context, files []string) error {
			if err := processFiles(ctx, sess, ruleSet, activeProfile, files); err != nil {
				return err
			}
			if sess.Pending() == 0 {
				// Nothing to write, but do not keep exiftool idling between batches.
				return sess.Close()
			}
			res, err := sess.SaveChanges(ctx)
			if err != nil {
				// Never retry a failed batch on the next one.
				sess.DiscardAll()
				return err
			}
			cmd.Printf("Updated %d file(s), restored %d modification time(s).\n", res.Files, res.Restored)
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchPatterns, "pattern", "p", nil, "file glob relative to dir, repeatable")
	watchCmd.Flags().StringVar(&watchRulesPath, "rules", "", "YAML rules file (default: built-in rules)")
	rootCmd.AddCommand(watchCmd)
}
