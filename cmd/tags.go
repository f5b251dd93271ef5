package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <file>",
	Short: "Print the tags exiftool reports for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cfg.Overwrite())
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.UseFileName(args[0]); err != nil {
			return err
		}
		snap, err := sess.Tags(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range snap.Names() {
			value, _ := snap.Get(name)
			fmt.Fprintf(out, "%-28s %s\n", name, value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
