package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	BlockedHours    int `yaml:"blocked_threshold_hours" json:"blocked_threshold_hours"`
	ReviewHours     int `yaml:"review_threshold_hours" json:"review_threshold_hours"`
	MaxReworkCycles int `yaml:"max_rework_cycles" json:"max_rework_cycles"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		BlockedHours:    24,
		ReviewHours:     48,
		MaxReworkCycles: 3,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate(planID string) ([]Alert, error)
}

// alertEngine implements AlertEngine by replaying status-change events and
// checking thresholds against the latest known state of each task.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// taskTrace is the replayed state of one task: its latest status, when it
// entered that status, and how many review rejections it has accumulated.
type taskTrace struct {
	status  string
	since   time.Time
	reworks int
}

// Evaluate replays task.status_changed events for the plan and returns an
// alert for every task stuck blocked or in review past its threshold, and for
// every task whose rework count crossed the limit.
func (ae *alertEngine) Evaluate(planID string) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: "task.status_changed", PlanID: planID})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	traces := make(map[string]*taskTrace)
	for _, event := range events {
		taskID, _ := event.Data["task_id"].(string)
		to, _ := event.Data["to"].(string)
		if taskID == "" || to == "" {
			continue
		}
		tr := traces[taskID]
		if tr == nil {
			tr = &taskTrace{}
			traces[taskID] = tr
		}
		tr.status = to
		tr.since = event.Time
		if from, _ := event.Data["from"].(string); from == "PENDING_REVIEW" && to == "IN_PROGRESS" {
			tr.reworks++
		}
	}

	ids := make([]string, 0, len(traces))
	for id := range traces {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := ae.now().UTC()
	var alerts []Alert
	for _, id := range ids {
		tr := traces[id]
		age := now.Sub(tr.since)

		if tr.status == "BLOCKED" && age >= time.Duration(ae.thresholds.BlockedHours)*time.Hour {
			alerts = append(alerts, Alert{
				ID:        "blocked:" + id,
				Condition: "task_blocked_too_long",
				Severity:  SeverityHigh,
				Message: fmt.Sprintf("task %s has been BLOCKED for %dh (threshold %dh)",
					id, int(age.Hours()), ae.thresholds.BlockedHours),
				TriggeredAt: now,
			})
		}
		if tr.status == "PENDING_REVIEW" && age >= time.Duration(ae.thresholds.ReviewHours)*time.Hour {
			alerts = append(alerts, Alert{
				ID:        "review:" + id,
				Condition: "review_pending_too_long",
				Severity:  SeverityMedium,
				Message: fmt.Sprintf("task %s has been awaiting review for %dh (threshold %dh)",
					id, int(age.Hours()), ae.thresholds.ReviewHours),
				TriggeredAt: now,
			})
		}
		if ae.thresholds.MaxReworkCycles > 0 && tr.reworks >= ae.thresholds.MaxReworkCycles {
			alerts = append(alerts, Alert{
				ID:        "rework:" + id,
				Condition: "excessive_rework",
				Severity:  SeverityLow,
				Message: fmt.Sprintf("task %s has been sent back for rework %d times (threshold %d)",
					id, tr.reworks, ae.thresholds.MaxReworkCycles),
				TriggeredAt: now,
			})
		}
	}

	return alerts, nil
}
