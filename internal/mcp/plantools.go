package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/plan-manager/internal/core"
)

// --- Plan tool input/output types ---

type createPlanInput struct {
	Title       string `json:"title" jsonschema:"required,plan title (max 200 chars, no colons)"`
	Description string `json:"description,omitempty" jsonschema:"optional plan description (max 2000 chars)"`
	Priority    *int   `json:"priority,omitempty" jsonschema:"optional priority 0 (highest) to 5 (lowest)"`
}

type getPlanInput struct {
	PlanID string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
}

type updatePlanInput struct {
	PlanID      string  `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	Title       *string `json:"title,omitempty" jsonschema:"new title"`
	Description *string `json:"description,omitempty" jsonschema:"new description"`
	Priority    *int    `json:"priority,omitempty" jsonschema:"new priority 0-5"`
}

type deletePlanInput struct {
	PlanID string `json:"plan_id" jsonschema:"required,plan id to delete"`
}

type listPlansInput struct {
	Statuses string `json:"statuses,omitempty" jsonschema:"comma-separated status filter (e.g. TODO,IN_PROGRESS)"`
}

type planSummaryOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Current bool   `json:"current"`
}

type listPlansOutput struct {
	Plans []planSummaryOutput `json:"plans"`
	Count int                 `json:"count"`
}

type setCurrentPlanInput struct {
	PlanID string `json:"plan_id" jsonschema:"required,plan id to make current"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// --- Registration ---

func (s *Server) registerPlanTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_plan",
		Description: "Create a new plan. The plan id is derived from the title as a slug, made unique with a numeric suffix if needed.",
	}, s.handleCreatePlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_plan",
		Description: "Get a plan with its rolled-up status. Omit plan_id to use the current plan.",
	}, s.handleGetPlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_plan",
		Description: "Update a plan's title, description, or priority. Status cannot be set; it rolls up from stories.",
	}, s.handleUpdatePlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_plan",
		Description: "Delete a plan and everything under it. If it was current, the current pointer moves to another plan.",
	}, s.handleDeletePlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_plans",
		Description: "List all known plans with their statuses, marking the current one.",
	}, s.handleListPlans)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_current_plan",
		Description: "Switch the current plan used as the default scope for other tools.",
	}, s.handleSetCurrentPlan)
}

// --- Handlers ---

func (s *Server) handleCreatePlan(_ context.Context, _ *gomcp.CallToolRequest, input createPlanInput) (*gomcp.CallToolResult, planOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), planOutput{}, nil
	}
	plan, err := s.plans.Create(input.Title, input.Description, input.Priority)
	if err != nil {
		return domainError(err), planOutput{}, nil
	}
	return nil, planToOutput(plan), nil
}

func (s *Server) handleGetPlan(_ context.Context, _ *gomcp.CallToolRequest, input getPlanInput) (*gomcp.CallToolResult, planOutput, error) {
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), planOutput{}, nil
	}
	plan, err := s.plans.Get(planID)
	if err != nil {
		return domainError(err), planOutput{}, nil
	}
	return nil, planToOutput(plan), nil
}

func (s *Server) handleUpdatePlan(_ context.Context, _ *gomcp.CallToolRequest, input updatePlanInput) (*gomcp.CallToolResult, planOutput, error) {
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), planOutput{}, nil
	}
	plan, err := s.plans.Update(planID, core.PlanUpdate{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
	})
	if err != nil {
		return domainError(err), planOutput{}, nil
	}
	return nil, planToOutput(plan), nil
}

func (s *Server) handleDeletePlan(_ context.Context, _ *gomcp.CallToolRequest, input deletePlanInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.PlanID == "" {
		return errorResult("plan_id is required"), messageOutput{}, nil
	}
	if err := s.plans.Delete(input.PlanID); err != nil {
		return domainError(err), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("plan %s deleted", input.PlanID)}, nil
}

func (s *Server) handleListPlans(_ context.Context, _ *gomcp.CallToolRequest, input listPlansInput) (*gomcp.CallToolResult, listPlansOutput, error) {
	statuses, err := parseStatuses(input.Statuses)
	if err != nil {
		return domainError(err), listPlansOutput{}, nil
	}
	summaries, err := s.plans.List(statuses)
	if err != nil {
		return domainError(err), listPlansOutput{}, nil
	}
	current, err := s.plans.Current()
	if err != nil {
		return domainError(err), listPlansOutput{}, nil
	}

	out := listPlansOutput{Plans: make([]planSummaryOutput, len(summaries)), Count: len(summaries)}
	for i, p := range summaries {
		out.Plans[i] = planSummaryOutput{
			ID:      p.ID,
			Title:   p.Title,
			Status:  string(p.Status),
			Current: p.ID == current,
		}
	}
	return nil, out, nil
}

func (s *Server) handleSetCurrentPlan(_ context.Context, _ *gomcp.CallToolRequest, input setCurrentPlanInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.PlanID == "" {
		return errorResult("plan_id is required"), messageOutput{}, nil
	}
	if err := s.plans.SetCurrent(input.PlanID); err != nil {
		return domainError(err), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("current plan set to %s", input.PlanID)}, nil
}
