package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/plan-manager/internal/core"
	"github.com/valter-silva-au/plan-manager/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks and their lifecycle",
	Long: `Task CRUD and the gated lifecycle operations.

Task ids may be local ("write-parser") with --story, or fully qualified
("auth-story:write-parser") on their own.`,
}

var (
	taskPlanID            string
	taskStoryID           string
	taskCreateDescription string
	taskCreatePriority    int
	taskCreateDependsOn   []string
	taskListStatus        string
	taskListUnblocked     bool
	taskDeleteForce       bool
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task in a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		if taskStoryID == "" {
			return fmt.Errorf("--story is required")
		}
		var priority *int
		if cmd.Flags().Changed("priority") {
			priority = &taskCreatePriority
		}
		task, err := Tasks.Create(planID, taskStoryID, args[0], taskCreateDescription, priority, taskCreateDependsOn)
		if err != nil {
			return err
		}
		fmt.Printf("Created task %s (%s)\n", task.ID, task.Title)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in dependency order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		statuses, err := parseStatusFlag(taskListStatus)
		if err != nil {
			return err
		}
		tasks, err := Tasks.List(planID, core.TaskFilter{
			StoryID:   taskStoryID,
			Statuses:  statuses,
			Unblocked: taskListUnblocked,
		})
		if err != nil {
			return err
		}
		for _, t := range tasks {
			line := fmt.Sprintf("[%-14s] %s - %s", t.Status, t.ID, t.Title)
			if len(t.DependsOn) > 0 {
				line += " <- " + strings.Join(t.DependsOn, ", ")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task's full lifecycle state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		task, err := Tasks.Get(planID, taskStoryID, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\nStatus: %s\n", task.ID, task.Title, task.Status)
		if task.Description != "" {
			fmt.Printf("Description: %s\n", task.Description)
		}
		if len(task.DependsOn) > 0 {
			fmt.Printf("Depends on: %s\n", strings.Join(task.DependsOn, ", "))
		}
		for i, step := range task.Steps {
			fmt.Printf("  %d. %s\n", i+1, step.Title)
		}
		if task.ExecutionSummary != "" {
			fmt.Printf("Summary: %s\n", task.ExecutionSummary)
		}
		for _, fb := range task.ReviewFeedback {
			fmt.Printf("Feedback (%s): %s\n", fb.Timestamp.Format("2006-01-02 15:04"), fb.Message)
		}
		if task.ReworkCount > 0 {
			fmt.Printf("Rework cycles: %d\n", task.ReworkCount)
		}
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		if err := Tasks.Delete(planID, taskStoryID, args[0], taskDeleteForce); err != nil {
			return err
		}
		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

// lifecycleCmd builds a cobra command for a one-argument lifecycle transition.
func lifecycleCmd(use, short string, op func(planID, storyID, taskID string) (*models.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, err := resolvePlanFlag(taskPlanID)
			if err != nil {
				return err
			}
			task, err := op(planID, taskStoryID, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Task %s is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

var taskSubmitCmd = &cobra.Command{
	Use:   "submit <task-id> <summary>",
	Short: "Submit an IN_PROGRESS task for review",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		task, err := Tasks.SubmitForReview(planID, taskStoryID, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Task %s is now %s\n", task.ID, task.Status)
		return nil
	},
}

var taskRejectCmd = &cobra.Command{
	Use:   "reject <task-id> <feedback>",
	Short: "Send a PENDING_REVIEW task back with feedback",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		task, err := Tasks.RequestChanges(planID, taskStoryID, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Task %s is now %s (rework cycle %d)\n", task.ID, task.Status, task.ReworkCount)
		return nil
	},
}

var taskApproveCmd = &cobra.Command{
	Use:   "approve <task-id>",
	Short: "Approve a PENDING_REVIEW task, completing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := resolvePlanFlag(taskPlanID)
		if err != nil {
			return err
		}
		task, entry, err := Tasks.ApproveReview(planID, taskStoryID, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Task %s is DONE\n", task.ID)
		if entry.ExecutionSummary != "" {
			fmt.Printf("Changelog: %s\n", entry.ExecutionSummary)
		}
		return nil
	},
}

func init() {
	taskCmd.PersistentFlags().StringVar(&taskPlanID, "plan", "", "plan id (defaults to the current plan)")
	taskCmd.PersistentFlags().StringVar(&taskStoryID, "story", "", "story id (optional when the task id is story:task)")

	taskCreateCmd.Flags().StringVarP(&taskCreateDescription, "description", "d", "", "task description")
	taskCreateCmd.Flags().IntVarP(&taskCreatePriority, "priority", "p", 0, "priority 0 (highest) to 5 (lowest)")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateDependsOn, "depends-on", nil, "task or story ids this task depends on")

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "comma-separated status filter")
	taskListCmd.Flags().BoolVar(&taskListUnblocked, "unblocked", false, "only TODO tasks with all dependencies DONE")

	taskDeleteCmd.Flags().BoolVar(&taskDeleteForce, "force", false, "delete even when other items depend on this task")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(lifecycleCmd("start", "Start a TODO task whose dependencies are DONE", func(p, s, t string) (*models.Task, error) {
		return Tasks.Start(p, s, t)
	}))
	taskCmd.AddCommand(taskSubmitCmd)
	taskCmd.AddCommand(taskRejectCmd)
	taskCmd.AddCommand(taskApproveCmd)
	taskCmd.AddCommand(lifecycleCmd("defer", "Set a TODO task aside as DEFERRED", func(p, s, t string) (*models.Task, error) {
		return Tasks.Defer(p, s, t)
	}))
	taskCmd.AddCommand(lifecycleCmd("undefer", "Return a DEFERRED task to TODO", func(p, s, t string) (*models.Task, error) {
		return Tasks.Undefer(p, s, t)
	}))
	rootCmd.AddCommand(taskCmd)
}
