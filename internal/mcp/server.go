// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the plan manager as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/plan-manager/internal/core"
	"github.com/valter-silva-au/plan-manager/internal/observability"
	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// Server wraps the plan manager services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server

	plans     core.PlanService
	stories   core.StoryService
	tasks     core.TaskService
	reports   core.ReportService
	selection core.SelectionStore

	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates an MCP server over the given services. selection,
// metricsCalc and alertEngine may be nil when those features are disabled.
func NewServer(
	plans core.PlanService,
	stories core.StoryService,
	tasks core.TaskService,
	reports core.ReportService,
	selection core.SelectionStore,
	metricsCalc observability.MetricsCalculator,
	alertEngine observability.AlertEngine,
	version string,
) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		plans:       plans,
		stories:     stories,
		tasks:       tasks,
		reports:     reports,
		selection:   selection,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "pman", Version: version},
		nil,
	)

	s.registerPlanTools()
	s.registerStoryTools()
	s.registerTaskTools()
	s.registerLifecycleTools()
	s.registerReportTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// resolvePlanID defaults an empty plan_id to the current plan.
func (s *Server) resolvePlanID(planID string) (string, error) {
	if planID != "" {
		return planID, nil
	}
	return s.plans.Current()
}

// --- Shared output shapes ---

type planOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Priority    *int   `json:"priority,omitempty"`
	Stories     int    `json:"story_count"`
}

type storyOutput struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Status             string   `json:"status"`
	Description        string   `json:"description,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	DependsOn          []string `json:"depends_on,omitempty"`
	Priority           *int     `json:"priority,omitempty"`
	Tasks              int      `json:"task_count"`
}

type stepOutput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type feedbackOutput struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type taskOutput struct {
	ID               string           `json:"id"`
	StoryID          string           `json:"story_id"`
	Title            string           `json:"title"`
	Status           string           `json:"status"`
	Description      string           `json:"description,omitempty"`
	DependsOn        []string         `json:"depends_on,omitempty"`
	Priority         *int             `json:"priority,omitempty"`
	Steps            []stepOutput     `json:"steps,omitempty"`
	ExecutionSummary string           `json:"execution_summary,omitempty"`
	ReviewFeedback   []feedbackOutput `json:"review_feedback,omitempty"`
	ReworkCount      int              `json:"rework_count"`
	CreationTime     string           `json:"creation_time"`
	CompletionTime   string           `json:"completion_time,omitempty"`
}

func planToOutput(p *models.Plan) planOutput {
	return planOutput{
		ID:          p.ID,
		Title:       p.Title,
		Status:      string(p.Status),
		Description: p.Description,
		Priority:    p.Priority,
		Stories:     len(p.Stories),
	}
}

func storyToOutput(st *models.Story) storyOutput {
	return storyOutput{
		ID:                 st.ID,
		Title:              st.Title,
		Status:             string(st.Status),
		Description:        st.Description,
		AcceptanceCriteria: st.AcceptanceCriteria,
		DependsOn:          st.DependsOn,
		Priority:           st.Priority,
		Tasks:              len(st.Tasks),
	}
}

func taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:               t.ID,
		StoryID:          t.StoryID,
		Title:            t.Title,
		Status:           string(t.Status),
		Description:      t.Description,
		DependsOn:        t.DependsOn,
		Priority:         t.Priority,
		ExecutionSummary: t.ExecutionSummary,
		ReworkCount:      t.ReworkCount,
		CreationTime:     t.CreationTime.Format(time.RFC3339),
	}
	for _, step := range t.Steps {
		out.Steps = append(out.Steps, stepOutput{Title: step.Title, Description: step.Description})
	}
	for _, fb := range t.ReviewFeedback {
		out.ReviewFeedback = append(out.ReviewFeedback, feedbackOutput{
			Message:   fb.Message,
			Timestamp: fb.Timestamp.Format(time.RFC3339),
		})
	}
	if t.CompletionTime != nil {
		out.CompletionTime = t.CompletionTime.Format(time.RFC3339)
	}
	return out
}

// --- Error rendering ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// domainError renders a core error with its kind tag so clients can branch
// on the failure class without parsing prose.
func domainError(err error) *gomcp.CallToolResult {
	if kind := core.KindOf(err); kind != "" {
		return errorResult(fmt.Sprintf("[%s] %s", kind, err))
	}
	return errorResult(err.Error())
}

// parseStatuses converts a comma-separated status filter, tolerating empty.
func parseStatuses(csv string) ([]models.Status, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	return models.ParseStatusCSV(csv)
}
