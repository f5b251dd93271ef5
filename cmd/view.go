package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/fixexif/internal/report"
	"github.com/fakeyudi/fixexif/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <plan.json>",
	Short: "Review a plan saved with 'fix --dry-run --format json'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}
		plan, err := report.ParsePlan(data)
		if err != nil {
			return err
		}

		if plainOutput {
			out, err := (&report.TextRenderer{}).Render(plan)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		_, err = tui.Run(plan, "")
		return err
	},
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
