package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// ReportService generates human-readable status reports. Reports are a
// presentation concern layered on the read-only plan graph; they never
// mutate state.
type ReportService interface {
	PlanReport(planID string) (string, error)
	StoryReport(planID, storyID string) (string, error)
}

type reportService struct {
	store PlanStore
}

// NewReportService creates a ReportService backed by the given plan store.
func NewReportService(store PlanStore) ReportService {
	return &reportService{store: store}
}

// PlanReport summarizes every story in the plan with its task progress.
func (s *reportService) PlanReport(planID string) (string, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return "", err
	}
	if len(plan.Stories) == 0 {
		return fmt.Sprintf("Plan %q contains no stories.", plan.Title), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plan Summary: %s (%s)\n", plan.Title, plan.Status)
	b.WriteString(strings.Repeat("-", 51) + "\n")
	for _, story := range topoSortStories(plan.Stories) {
		progress := "(no tasks)"
		if len(story.Tasks) > 0 {
			done := 0
			for _, t := range story.Tasks {
				if t.Status == models.StatusDone {
					done++
				}
			}
			progress = fmt.Sprintf("(%d/%d tasks done)", done, len(story.Tasks))
		}
		fmt.Fprintf(&b, "[%-14s] %s %s\n", story.Status, story.Title, progress)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// StoryReport details one story: its task list, and blocker annotations for
// every blocked task.
func (s *reportService) StoryReport(planID, storyID string) (string, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return "", err
	}
	story := plan.FindStory(storyID)
	if story == nil {
		return "", notFoundError("story", storyID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Story: %s (%s)\n", story.Title, story.Status)
	b.WriteString(strings.Repeat("-", 51) + "\n")

	if len(story.Tasks) == 0 {
		b.WriteString("This story has no tasks.\n")
		b.WriteString("\nNext Action: Create tasks for this story.")
		return b.String(), nil
	}

	done := 0
	for _, t := range story.Tasks {
		if t.Status == models.StatusDone {
			done++
		}
	}
	fmt.Fprintf(&b, "Tasks (%d/%d done):\n", done, len(story.Tasks))
	for _, task := range story.Tasks {
		fmt.Fprintf(&b, "[%-14s] %s - %s\n", task.Status, task.LocalID(), task.Title)
	}

	blocked := false
	for _, task := range story.Tasks {
		if task.Status != models.StatusBlocked {
			continue
		}
		blocked = true
		fmt.Fprintf(&b, "\nTask %q is BLOCKED by:\n", task.Title)
		for _, line := range describeBlockers(plan, task) {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	switch {
	case done == len(story.Tasks):
		b.WriteString("\nAll tasks for this story are complete!")
	case nextUnblockedTask(plan, story) != nil:
		next := nextUnblockedTask(plan, story)
		fmt.Fprintf(&b, "\nNext Action: start_task %s", next.ID)
	case blocked:
		b.WriteString("\nNext Action: Complete the dependencies above to unblock work.")
	default:
		b.WriteString("\nAll remaining tasks are either in progress, in review, or deferred.")
	}
	return b.String(), nil
}

// describeBlockers returns human-readable lines for each unmet dependency
// of a task.
func describeBlockers(plan *models.Plan, task *models.Task) []string {
	idx := indexPlan(plan)
	var out []string
	for _, dep := range task.DependsOn {
		fq := dep
		if !strings.Contains(dep, ":") {
			if _, isStory := idx.stories[dep]; !isStory {
				fq = models.QualifiedTaskID(task.StoryID, dep)
			}
		}
		if depTask, ok := idx.tasks[fq]; ok {
			if depTask.Status != models.StatusDone {
				out = append(out, fmt.Sprintf("Task %q is not DONE (status: %s)", depTask.Title, depTask.Status))
			}
		} else if depStory, ok := idx.stories[dep]; ok {
			if depStory.Status != models.StatusDone {
				out = append(out, fmt.Sprintf("Story %q is not DONE (status: %s)", depStory.Title, depStory.Status))
			}
		} else {
			out = append(out, fmt.Sprintf("Dependency %q not found", dep))
		}
	}
	return out
}

// nextUnblockedTask picks the first TODO task with all dependencies DONE,
// in insertion order.
func nextUnblockedTask(plan *models.Plan, story *models.Story) *models.Task {
	for _, task := range story.Tasks {
		if task.Status == models.StatusTODO && len(unmetDependencies(plan, task)) == 0 {
			return task
		}
	}
	return nil
}
