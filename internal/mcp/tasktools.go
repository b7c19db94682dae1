package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/plan-manager/internal/core"
	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// --- Task tool input/output types ---

type createTaskInput struct {
	PlanID      string   `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID     string   `json:"story_id" jsonschema:"required,story the task belongs to"`
	Title       string   `json:"title" jsonschema:"required,task title (max 200 chars, no colons)"`
	Description string   `json:"description,omitempty" jsonschema:"optional task description (max 2000 chars)"`
	Priority    *int     `json:"priority,omitempty" jsonschema:"optional priority 0 (highest) to 5 (lowest)"`
	DependsOn   []string `json:"depends_on,omitempty" jsonschema:"task ids (local or story:task) or story ids this task depends on"`
}

type getTaskInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified (story:task)"`
	TaskID  string `json:"task_id" jsonschema:"required,task id, local or fully qualified (story:task)"`
}

type updateTaskInput struct {
	PlanID      string   `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID     string   `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID      string   `json:"task_id" jsonschema:"required,task id"`
	Title       *string  `json:"title,omitempty" jsonschema:"new title"`
	Description *string  `json:"description,omitempty" jsonschema:"new description"`
	Priority    *int     `json:"priority,omitempty" jsonschema:"new priority 0-5"`
	DependsOn   []string `json:"depends_on,omitempty" jsonschema:"replacement dependency list"`
}

type deleteTaskInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID  string `json:"task_id" jsonschema:"required,task id"`
	Force   bool   `json:"force,omitempty" jsonschema:"delete even when other items depend on this task; their references are removed"`
}

type listTasksInput struct {
	PlanID    string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID   string `json:"story_id,omitempty" jsonschema:"restrict to one story"`
	Statuses  string `json:"statuses,omitempty" jsonschema:"comma-separated status filter (e.g. TODO,BLOCKED)"`
	Unblocked bool   `json:"unblocked,omitempty" jsonschema:"only TODO tasks whose dependencies are all DONE"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type stepInput struct {
	Title       string `json:"title" jsonschema:"required,step title"`
	Description string `json:"description,omitempty" jsonschema:"optional step detail"`
}

type createStepsInput struct {
	PlanID  string      `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string      `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID  string      `json:"task_id" jsonschema:"required,task id"`
	Steps   []stepInput `json:"steps" jsonschema:"required,replacement execution plan (max 50 steps)"`
}

type setCurrentTaskInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id,omitempty" jsonschema:"story id; optional when task_id is fully qualified"`
	TaskID  string `json:"task_id" jsonschema:"required,task id to select"`
}

// --- Registration ---

func (s *Server) registerTaskTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Create a task inside a story. New tasks start in TODO; the id is a slug of the title qualified as story:task.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a task with its full lifecycle state: steps, execution summary, review feedback, rework count.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task",
		Description: "Update a task's descriptive fields or dependencies. Status cannot be set here; use the lifecycle tools.",
	}, s.handleUpdateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task. Fails listing dependents when other items depend on it, unless force is set.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks in dependency order, then by priority and creation time. Supports story, status, and unblocked filters.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_steps",
		Description: "Replace a task's execution plan with an explicit list of steps. Only allowed while the task is in TODO.",
	}, s.handleCreateSteps)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_current_task",
		Description: "Select the task that interactive tools default to.",
	}, s.handleSetCurrentTask)
}

// --- Handlers ---

func (s *Server) handleCreateTask(_ context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.StoryID == "" {
		return errorResult("story_id is required"), taskOutput{}, nil
	}
	if input.Title == "" {
		return errorResult("title is required"), taskOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	task, err := s.tasks.Create(planID, input.StoryID, input.Title, input.Description, input.Priority, input.DependsOn)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	task, err := s.tasks.Get(planID, input.StoryID, input.TaskID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleUpdateTask(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	task, err := s.tasks.Update(planID, input.StoryID, input.TaskID, core.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DependsOn:   input.DependsOn,
	})
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleDeleteTask(_ context.Context, _ *gomcp.CallToolRequest, input deleteTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), messageOutput{}, nil
	}
	if err := s.tasks.Delete(planID, input.StoryID, input.TaskID, input.Force); err != nil {
		return domainError(err), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("task %s deleted", input.TaskID)}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), listTasksOutput{}, nil
	}
	statuses, err := parseStatuses(input.Statuses)
	if err != nil {
		return domainError(err), listTasksOutput{}, nil
	}
	tasks, err := s.tasks.List(planID, core.TaskFilter{
		StoryID:   input.StoryID,
		Statuses:  statuses,
		Unblocked: input.Unblocked,
	})
	if err != nil {
		return domainError(err), listTasksOutput{}, nil
	}

	out := listTasksOutput{Tasks: make([]taskOutput, len(tasks)), Count: len(tasks)}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleCreateSteps(_ context.Context, _ *gomcp.CallToolRequest, input createStepsInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	steps := make([]models.Step, len(input.Steps))
	for i, st := range input.Steps {
		steps[i] = models.Step{Title: st.Title, Description: st.Description}
	}
	task, err := s.tasks.SetSteps(planID, input.StoryID, input.TaskID, steps)
	if err != nil {
		return domainError(err), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleSetCurrentTask(_ context.Context, _ *gomcp.CallToolRequest, input setCurrentTaskInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), messageOutput{}, nil
	}
	if s.selection == nil {
		return errorResult("selection store not available"), messageOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), messageOutput{}, nil
	}
	task, err := s.tasks.Get(planID, input.StoryID, input.TaskID)
	if err != nil {
		return domainError(err), messageOutput{}, nil
	}
	if err := s.selection.SetCurrentTaskID(planID, task.ID); err != nil {
		return errorResult(fmt.Sprintf("saving selection: %s", err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("current task set to %s", task.ID)}, nil
}
