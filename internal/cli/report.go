package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportPlanID string

var reportCmd = &cobra.Command{
	Use:   "report [story-id]",
	Short: "Generate a status report for the plan or one story",
	Long: `Without arguments, summarizes every story in the plan with its task
progress. With a story id, details that story's tasks, explains what is
blocking any BLOCKED task, and suggests the next action.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(reportPlanID)
		if err != nil {
			return err
		}

		var text string
		if len(args) == 1 {
			text, err = Reports.StoryReport(planID, args[0])
		} else {
			text, err = Reports.PlanReport(planID)
		}
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPlanID, "plan", "", "plan id (defaults to the current plan)")
	rootCmd.AddCommand(reportCmd)
}
