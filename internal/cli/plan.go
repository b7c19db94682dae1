package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage plans",
}

var (
	planCreateDescription string
	planCreatePriority    int
)

var planCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var priority *int
		if cmd.Flags().Changed("priority") {
			priority = &planCreatePriority
		}
		plan, err := Plans.Create(args[0], planCreateDescription, priority)
		if err != nil {
			return err
		}
		fmt.Printf("Created plan %s (%s)\n", plan.ID, plan.Title)
		return nil
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all plans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := Plans.List(nil)
		if err != nil {
			return err
		}
		current, err := Plans.Current()
		if err != nil {
			return err
		}
		for _, p := range summaries {
			marker := " "
			if p.ID == current {
				marker = "*"
			}
			fmt.Printf("%s [%-14s] %s - %s\n", marker, p.Status, p.ID, p.Title)
		}
		return nil
	},
}

var planUseCmd = &cobra.Command{
	Use:   "use <plan-id>",
	Short: "Switch the current plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Plans.SetCurrent(args[0]); err != nil {
			return err
		}
		fmt.Printf("Current plan set to %s\n", args[0])
		return nil
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan and everything under it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Plans.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted plan %s\n", args[0])
		return nil
	},
}

// resolvePlanFlag defaults an empty --plan flag to the current plan.
func resolvePlanFlag(planID string) (string, error) {
	if planID != "" {
		return planID, nil
	}
	return Plans.Current()
}

// parseStatusFlag converts a comma-separated --status value.
func parseStatusFlag(csv string) ([]models.Status, error) {
	if csv == "" {
		return nil, nil
	}
	return models.ParseStatusCSV(csv)
}

func init() {
	planCreateCmd.Flags().StringVarP(&planCreateDescription, "description", "d", "", "plan description")
	planCreateCmd.Flags().IntVarP(&planCreatePriority, "priority", "p", 0, "priority 0 (highest) to 5 (lowest)")

	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planUseCmd)
	planCmd.AddCommand(planDeleteCmd)
	rootCmd.AddCommand(planCmd)
}
