package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- Report tool input/output types ---

type getReportInput struct {
	PlanID  string `json:"plan_id,omitempty" jsonschema:"plan id; defaults to the current plan"`
	StoryID string `json:"story_id,omitempty" jsonschema:"when set, report on this story; otherwise summarize the whole plan"`
}

type getMetricsInput struct {
	PlanID string `json:"plan_id,omitempty" jsonschema:"restrict metrics to one plan; empty means all plans"`
	Since  string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	PlansCreated   int            `json:"plans_created"`
	StoriesCreated int            `json:"stories_created"`
	TasksCreated   int            `json:"tasks_created"`
	TasksCompleted int            `json:"tasks_completed"`
	ReworkCycles   int            `json:"rework_cycles"`
	TasksByStatus  map[string]int `json:"tasks_by_status"`
	EventCount     int            `json:"event_count"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct {
	PlanID string `json:"plan_id,omitempty" jsonschema:"restrict alerts to one plan; empty means all plans"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Registration ---

func (s *Server) registerReportTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_report",
		Description: "Generate a human-readable status report: story progress for a plan, or task detail with blocker analysis and a suggested next action for one story.",
	}, s.handleGetReport)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get activity metrics derived from the event log: items created, tasks completed, rework cycles, status transition counts.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate alert conditions: tasks blocked or awaiting review past their thresholds, and tasks with excessive rework.",
	}, s.handleGetAlerts)
}

// --- Handlers ---

func (s *Server) handleGetReport(_ context.Context, _ *gomcp.CallToolRequest, input getReportInput) (*gomcp.CallToolResult, renderedTextOutput, error) {
	planID, err := s.resolvePlanID(input.PlanID)
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}

	var text string
	if input.StoryID != "" {
		text, err = s.reports.StoryReport(planID, input.StoryID)
	} else {
		text, err = s.reports.PlanReport(planID)
	}
	if err != nil {
		return domainError(err), renderedTextOutput{}, nil
	}
	return nil, renderedTextOutput{Text: text}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(input.PlanID, sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		PlansCreated:   metrics.PlansCreated,
		StoriesCreated: metrics.StoriesCreated,
		TasksCreated:   metrics.TasksCreated,
		TasksCompleted: metrics.TasksCompleted,
		ReworkCycles:   metrics.ReworkCycles,
		TasksByStatus:  metrics.TasksByStatus,
		EventCount:     metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, input getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate(input.PlanID)
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{TasksByStatus: make(map[string]int)}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil || num <= 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	switch suffix {
	case 'd':
		return now.Add(-time.Duration(num) * 24 * time.Hour), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	case 'w':
		return now.Add(-time.Duration(num) * 7 * 24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("invalid duration suffix %q (use d, h, or w)", string(suffix))
	}
}
