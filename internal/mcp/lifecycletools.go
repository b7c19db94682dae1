package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/plan-manager/internal/core"
	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// --- Lifecycle tool input/output types ---

type taskRefInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified (story:task)"`
	TaskID  string `json:"task_id" jsonschema:"required,task id, local or fully qualified"`
}

type submitForReviewInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID  string `json:"task_id" jsonschema:"required,task id"`
	Summary string `json:"execution_summary" jsonschema:"required,summary of the work done (max 2000 chars)"`
}

type requestChangesInput struct {
	PlanID   string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID  string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID   string `json:"task_id" jsonschema:"required,task id"`
	Feedback string `json:"feedback" jsonschema:"required,reviewer feedback explaining the required changes (max 2000 chars)"`
}

type approveReviewOutput struct {
	Task      taskOutput           `json:"task"`
	Changelog changelogEntryOutput `json:"changelog_entry"`
}

type changelogEntryOutput struct {
	TaskID           string `json:"task_id"`
	Title            string `json:"title"`
	ExecutionSummary string `json:"execution_summary,omitempty"`
	ReworkCount      int    `json:"rework_count"`
}

type generateChangelogInput struct {
	PlanID   string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID  string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID   string `json:"task_id" jsonschema:"required,id of a DONE task"`
	Category string `json:"category" jsonschema:"required,keepachangelog category: Added, Changed, Deprecated, Removed, Fixed, or Security"`
	Version  string `json:"version,omitempty" jsonschema:"optional release version for a version heading"`
	Date     string `json:"date,omitempty" jsonschema:"optional release date (YYYY-MM-DD); defaults to today when version is set"`
}

type generateCommitMessageInput struct {
	PlanID     string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID    string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID     string `json:"task_id" jsonschema:"required,id of a DONE task"`
	CommitType string `json:"commit_type" jsonschema:"required,conventional commit type: feat, fix, docs, style, refactor, perf, test, build, ci, or chore"`
}

type renderedTextOutput struct {
	Text string `json:"text"`
}

// --- Registration ---

func (s *Server) registerLifecycleTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "start_task",
		Description: "Move a TODO task to IN_PROGRESS. Fails with the unmet dependency list while any dependency is not DONE. Tasks without steps get a single fast-track step.",
	}, s.handleStartTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "submit_for_review",
		Description: "Move an IN_PROGRESS task to PENDING_REVIEW, recording the execution summary for the reviewer.",
	}, s.handleSubmitForReview)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "request_changes",
		Description: "Reject a PENDING_REVIEW task back to IN_PROGRESS with feedback. Increments the rework count and clears the stale summary.",
	}, s.handleRequestChanges)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "approve_review",
		Description: "Approve a PENDING_REVIEW task, moving it to DONE and returning a changelog entry. Parent story and plan statuses roll up automatically.",
	}, s.handleApproveReview)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "defer_task",
		Description: "Set a TODO task aside as DEFERRED. It is excluded from active work until undeferred.",
	}, s.handleDeferTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "undefer_task",
		Description: "Return a DEFERRED task to TODO.",
	}, s.handleUndeferTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_changelog",
		Description: "Render a keepachangelog-format entry for a completed task.",
	}, s.handleGenerateChangelog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_commit_message",
		Description: "Render a conventional commit message for a completed task, with the execution summary as body.",
	}, s.handleGenerateCommitMessage)
}

// --- Handlers ---

// lifecycleCall factors the shared shape of the single-argument transitions.
func (s *Server) lifecycleCall(input taskRefInput, op func(planID string) (*models.Task, error)) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	task, err := op(planID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleStartTask(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, taskOutput, error) {
	return s.lifecycleCall(input, func(planID string) (*models.Task, error) {
		return s.tasks.Start(planID, input.StoryID, input.TaskID)
	})
}

func (s *Server) handleSubmitForReview(_ context.Context, _ *gomcp.CallToolRequest, input submitForReviewInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Summary == "" {
		return errorResult("execution_summary is required"), taskOutput{}, nil
	}
	return s.lifecycleCall(taskRefInput{PlanID: input.PlanID, StoryID: input.StoryID, TaskID: input.TaskID},
		func(planID string) (*models.Task, error) {
			return s.tasks.SubmitForReview(planID, input.StoryID, input.TaskID, input.Summary)
		})
}

func (s *Server) handleRequestChanges(_ context.Context, _ *gomcp.CallToolRequest, input requestChangesInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Feedback == "" {
		return errorResult("feedback is required"), taskOutput{}, nil
	}
	return s.lifecycleCall(taskRefInput{PlanID: input.PlanID, StoryID: input.StoryID, TaskID: input.TaskID},
		func(planID string) (*models.Task, error) {
			return s.tasks.RequestChanges(planID, input.StoryID, input.TaskID, input.Feedback)
		})
}

func (s *Server) handleApproveReview(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, approveReviewOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), approveReviewOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), approveReviewOutput{}, nil
	}
	task, entry, err := s.tasks.ApproveReview(planID, input.StoryID, input.TaskID)
	if err != nil {
		return domainError(err), approveReviewOutput{}, nil
	}
	return nil, approveReviewOutput{
		Task: taskToOutput(task),
		Changelog: changelogEntryOutput{
			TaskID:           entry.TaskID,
			Title:            entry.Title,
			ExecutionSummary: entry.ExecutionSummary,
			ReworkCount:      entry.ReworkCount,
		},
	}, nil
}

func (s *Server) handleDeferTask(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, taskOutput, error) {
	return s.lifecycleCall(input, func(planID string) (*models.Task, error) {
		return s.tasks.Defer(planID, input.StoryID, input.TaskID)
	})
}

func (s *Server) handleUndeferTask(_ context.Context, _ *gomcp.CallToolRequest, input taskRefInput) (*gomcp.CallToolResult, taskOutput, error) {
	return s.lifecycleCall(input, func(planID string) (*models.Task, error) {
		return s.tasks.Undefer(planID, input.StoryID, input.TaskID)
	})
}

// completedEntry loads a task and requires it to be DONE before rendering
// release artifacts from it.
func (s *Server) completedEntry(planID, storyID, taskID string) (models.ChangelogEntry, error) {
	task, err := s.tasks.Get(planID, storyID, taskID)
	if err != nil {
		return models.ChangelogEntry{}, err
	}
	if task.Status != models.StatusDone {
		return models.ChangelogEntry{}, fmt.Errorf("task %s is %s, not DONE", task.ID, task.Status)
	}
	return models.ChangelogEntry{
		TaskID:           task.ID,
		Title:            task.Title,
		ExecutionSummary: task.ExecutionSummary,
		ReworkCount:      task.ReworkCount,
	}, nil
}

func (s *Server) handleGenerateChangelog(_ context.Context, _ *gomcp.CallToolRequest, input generateChangelogInput) (*gomcp.CallToolResult, renderedTextOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), renderedTextOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	entry, err := s.completedEntry(planID, input.StoryID, input.TaskID)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	text, err := core.RenderChangelog(entry, input.Category, input.Version, input.Date)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	return nil, renderedTextOutput{Text: text}, nil
}

func (s *Server) handleGenerateCommitMessage(_ context.Context, _ *gomcp.CallToolRequest, input generateCommitMessageInput) (*gomcp.CallToolResult, renderedTextOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), renderedTextOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	entry, err := s.completedEntry(planID, input.StoryID, input.TaskID)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	text, err := core.RenderCommitMessage(entry, input.CommitType)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	return nil, renderedTextOutput{Text: text}, nil
}
