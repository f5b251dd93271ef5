package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/session"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore modification times left over from an interrupted commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore()
		if err != nil {
			return err
		}
		j, err := store.Load()
		if err != nil {
			if errors.Is(err, session.ErrNoPending) {
				cmd.Println("Nothing to recover.")
				return nil
			}
			return err
		}

		n, err := j.Apply()
		if err != nil {
			cmd.Printf("Restored %d of %d modification time(s).\n", n, len(j.Restores))
			return err
		}
		if err := store.Delete(); err != nil {
			return err
		}
		logger.Info("journal cleared", "id", j.ID)
		cmd.Printf("Restored %d modification time(s).\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
