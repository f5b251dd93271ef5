package cmd

import "github.com/spf13/cobra"

// version is set at build time with -ldflags "-X github.com/fakeyudi/fixexif/cmd.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the fixexif version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("fixexif %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
