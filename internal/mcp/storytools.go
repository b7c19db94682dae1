package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/plan-manager/internal/core"
)

// --- Story tool input/output types ---

type createStoryInput struct {
	PlanID             string   `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	Title              string   `json:"title" jsonschema:"required,story title (max 200 chars, no colons)"`
	Description        string   `json:"description,omitempty" jsonschema:"optional story description (max 2000 chars)"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty" jsonschema:"optional acceptance criteria"`
	Priority           *int     `json:"priority,omitempty" jsonschema:"optional priority 0 (highest) to 5 (lowest)"`
	DependsOn          []string `json:"depends_on,omitempty" jsonschema:"story ids this story depends on"`
}

type getStoryInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id" jsonschema:"required,story id"`
}

type updateStoryInput struct {
	PlanID             string   `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID            string   `json:"story_id" jsonschema:"required,story id"`
	Title              *string  `json:"title,omitempty" jsonschema:"new title"`
	Description        *string  `json:"description,omitempty" jsonschema:"new description"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty" jsonschema:"replacement acceptance criteria"`
	Priority           *int     `json:"priority,omitempty" jsonschema:"new priority 0-5"`
	DependsOn          []string `json:"depends_on,omitempty" jsonschema:"replacement dependency list"`
}

type deleteStoryInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id" jsonschema:"required,story id"`
	Force   bool   `json:"force,omitempty" jsonschema:"delete even when other items depend on this story or its tasks; their references are removed"`
}

type listStoriesInput struct {
	PlanID    string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	Statuses  string `json:"statuses,omitempty" jsonschema:"comma-separated status filter (e.g. TODO,IN_PROGRESS)"`
	Unblocked bool   `json:"unblocked,omitempty" jsonschema:"only TODO stories whose dependencies are all DONE"`
}

type listStoriesOutput struct {
	Stories []storyOutput `json:"stories"`
	Count   int           `json:"count"`
}

type setCurrentStoryInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id" jsonschema:"required,story id to select"`
}

// --- Registration ---

func (s *Server) registerStoryTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_story",
		Description: "Create a story in a plan. The story id is a slug of the title, unique within the plan.",
	}, s.handleCreateStory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_story",
		Description: "Get a story with its rolled-up status and task count.",
	}, s.handleGetStory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_story",
		Description: "Update a story's fields. Status cannot be set; it rolls up from tasks. Dependency changes are validated against the whole graph.",
	}, s.handleUpdateStory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_story",
		Description: "Delete a story and all its tasks. Fails when outside items depend on it unless force is set.",
	}, s.handleDeleteStory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_stories",
		Description: "List stories in dependency order, then by priority and creation time. Supports status and unblocked filters.",
	}, s.handleListStories)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_current_story",
		Description: "Select the story that interactive tools default to.",
	}, s.handleSetCurrentStory)
}

// --- Handlers ---

func (s *Server) handleCreateStory(_ context.Context, _ *gomcp.CallToolRequest, input createStoryInput) (*gomcp.CallToolResult, storyOutput, error) {
	if input.Title == "" {
		return errorResult("title is required"), storyOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), storyOutput{}, nil
	}
	story, err := s.stories.Create(planID, input.Title, input.Description, input.AcceptanceCriteria, input.Priority, input.DependsOn)
	if err != nil {
		return domainError(err), storyOutput{}, nil
	}
	return nil, storyToOutput(story), nil
}

func (s *Server) handleGetStory(_ context.Context, _ *gomcp.CallToolRequest, input getStoryInput) (*gomcp.CallToolResult, storyOutput, error) {
	if input.StoryID == "" {
		return errorResult("story_id is required"), storyOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), storyOutput{}, nil
	}
	story, err := s.stories.Get(planID, input.StoryID)
	if err != nil {
		return domainError(err), storyOutput{}, nil
	}
	return nil, storyToOutput(story), nil
}

func (s *Server) handleUpdateStory(_ context.Context, _ *gomcp.CallToolRequest, input updateStoryInput) (*gomcp.CallToolResult, storyOutput, error) {
	if input.StoryID == "" {
		return errorResult("story_id is required"), storyOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), storyOutput{}, nil
	}
	story, err := s.stories.Update(planID, input.StoryID, core.StoryUpdate{
		Title:              input.Title,
		Description:        input.Description,
		AcceptanceCriteria: input.AcceptanceCriteria,
		Priority:           input.Priority,
		DependsOn:          input.DependsOn,
	})
	if err != nil {
		return domainError(err), storyOutput{}, nil
	}
	return nil, storyToOutput(story), nil
}

func (s *Server) handleDeleteStory(_ context.Context, _ *gomcp.CallToolRequest, input deleteStoryInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.StoryID == "" {
		return errorResult("story_id is required"), messageOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), messageOutput{}, nil
	}
	if err := s.stories.Delete(planID, input.StoryID, input.Force); err != nil {
		return domainError(err), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("story %s deleted", input.StoryID)}, nil
}

func (s *Server) handleListStories(_ context.Context, _ *gomcp.CallToolRequest, input listStoriesInput) (*gomcp.CallToolResult, listStoriesOutput, error) {
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), listStoriesOutput{}, nil
	}
	statuses, err := parseStatuses(input.Statuses)
	if err != nil {
		return domainError(err), listStoriesOutput{}, nil
	}
	stories, err := s.stories.List(planID, core.StoryFilter{Statuses: statuses, Unblocked: input.Unblocked})
	if err != nil {
		return domainError(err), listStoriesOutput{}, nil
	}

	out := listStoriesOutput{Stories: make([]storyOutput, len(stories)), Count: len(stories)}
	for i, st := range stories {
		out.Stories[i] = storyToOutput(st)
	}
	return nil, out, nil
}

func (s *Server) handleSetCurrentStory(_ context.Context, _ *gomcp.CallToolRequest, input setCurrentStoryInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.StoryID == "" {
		return errorResult("story_id is required"), messageOutput{}, nil
	}
	if s.selection == nil {
		return errorResult("selection store not available"), messageOutput{}, nil
	}
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), messageOutput{}, nil
	}
	if _, err := s.stories.Get(planID, input.StoryID); err != nil {
		return domainError(err), messageOutput{}, nil
	}
	if err := s.selection.SetCurrentStoryID(planID, input.StoryID); err != nil {
		return errorResult(fmt.Sprintf("saving selection: %s", err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: fmt.Sprintf("current story set to %s", input.StoryID)}, nil
}
