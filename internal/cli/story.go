package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/plan-manager/internal/core"
)

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Manage stories",
}

var (
	storyPlanID            string
	storyCreateDescription string
	storyCreatePriority    int
	storyCreateCriteria    []string
	storyCreateDependsOn   []string
	storyListStatus        string
	storyListUnblocked     bool
	storyDeleteForce       bool
)

var storyCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a story in the current plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(storyPlanID)
		if err != nil {
			return err
		}
		var priority *int
		if cmd.Flags().Changed("priority") {
			priority = &storyCreatePriority
		}
		story, err := Stories.Create(planID, args[0], storyCreateDescription, storyCreateCriteria, priority, storyCreateDependsOn)
		if err != nil {
			return err
		}
		fmt.Printf("Created story %s (%s)\n", story.ID, story.Title)
		return nil
	},
}

var storyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stories in dependency order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(storyPlanID)
		if err != nil {
			return err
		}
		statuses, err := parseStatusFlag(storyListStatus)
		if err != nil {
			return err
		}
		stories, err := Stories.List(planID, core.StoryFilter{Statuses: statuses, Unblocked: storyListUnblocked})
		if err != nil {
			return err
		}
		for _, st := range stories {
			line := fmt.Sprintf("[%-14s] %s - %s (%d tasks)", st.Status, st.ID, st.Title, len(st.Tasks))
			if len(st.DependsOn) > 0 {
				line += " <- " + strings.Join(st.DependsOn, ", ")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var storyDeleteCmd = &cobra.Command{
	Use:   "delete <story-id>",
	Short: "Delete a story and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(storyPlanID)
		if err != nil {
			return err
		}
		if err := Stories.Delete(planID, args[0], storyDeleteForce); err != nil {
			return err
		}
		fmt.Printf("Deleted story %s\n", args[0])
		return nil
	},
}

func init() {
	storyCmd.PersistentFlags().StringVar(&storyPlanID, "plan", "", "plan id (defaults to the current plan)")

	storyCreateCmd.Flags().StringVarP(&storyCreateDescription, "description", "d", "", "story description")
	storyCreateCmd.Flags().IntVarP(&storyCreatePriority, "priority", "p", 0, "priority 0 (highest) to 5 (lowest)")
	storyCreateCmd.Flags().StringArrayVar(&storyCreateCriteria, "criteria", nil, "acceptance criterion (repeatable)")
	storyCreateCmd.Flags().StringSliceVar(&storyCreateDependsOn, "depends-on", nil, "story ids this story depends on")

	storyListCmd.Flags().StringVar(&storyListStatus, "status", "", "comma-separated status filter")
	storyListCmd.Flags().BoolVar(&storyListUnblocked, "unblocked", false, "only TODO stories with all dependencies DONE")

	storyDeleteCmd.Flags().BoolVar(&storyDeleteForce, "force", false, "delete even when other items depend on this story")

	storyCmd.AddCommand(storyCreateCmd)
	storyCmd.AddCommand(storyListCmd)
	storyCmd.AddCommand(storyDeleteCmd)
	rootCmd.AddCommand(storyCmd)
}
