package cmd

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/shell"
)

var installCompletionCmd = &cobra.Command{
	Use:       "install-completion <bash|zsh|fish>",
	Short:     "Write the shell completion script and show how to load it",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: shell.Supported,
	// Completion does not need a profile or config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		var err error
		switch args[0] {
		case "bash":
			err = rootCmd.GenBashCompletionV2(&buf, true)
		case "zsh":
			err = rootCmd.GenZshCompletion(&buf)
		case "fish":
			err = rootCmd.GenFishCompletion(&buf, true)
		}
		if err != nil {
			return err
		}
		return shell.Install(args[0], buf.Bytes(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(installCompletionCmd)
}
