package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	PlansCreated   int            `json:"plans_created"`
	StoriesCreated int            `json:"stories_created"`
	TasksCreated   int            `json:"tasks_created"`
	TasksCompleted int            `json:"tasks_completed"`
	ReworkCycles   int            `json:"rework_cycles"`
	TasksByStatus  map[string]int `json:"tasks_by_status"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(planID string, since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads events since the given time, optionally scoped to one plan,
// and aggregates them into metrics. TasksByStatus counts transitions, so a
// task that bounced through review twice contributes twice.
func (mc *metricsCalculator) Calculate(planID string, since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since, PlanID: planID})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		TasksByStatus: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "plan.created":
			m.PlansCreated++
		case "story.created":
			m.StoriesCreated++
		case "task.created":
			m.TasksCreated++
		case "task.status_changed":
			to, _ := event.Data["to"].(string)
			if to != "" {
				m.TasksByStatus[to]++
			}
			if to == "DONE" {
				m.TasksCompleted++
			}
			if from, _ := event.Data["from"].(string); from == "PENDING_REVIEW" && to == "IN_PROGRESS" {
				m.ReworkCycles++
			}
		}
	}

	return m, nil
}
