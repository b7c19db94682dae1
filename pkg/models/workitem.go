// Package models contains the domain types for the plan manager: plans,
// stories, tasks, and their shared work-item shape. All types carry yaml tags
// because the persistence layer mirrors the graph to YAML files.
package models

import "time"

// WorkItem is the shape shared by Plan, Story, and Task.
//
// Invariant: CompletionTime is set if and only if Status is DONE. Use
// ApplyStatus to change Status so the invariant holds.
type WorkItem struct {
	ID             string     `yaml:"id"`
	Title          string     `yaml:"title"`
	Status         Status     `yaml:"status"`
	Description    string     `yaml:"description,omitempty"`
	DependsOn      []string   `yaml:"depends_on,omitempty"`
	Priority       *int       `yaml:"priority,omitempty"`
	CreationTime   time.Time  `yaml:"creation_time"`
	CompletionTime *time.Time `yaml:"completion_time,omitempty"`
}

// ApplyStatus sets the status and keeps CompletionTime consistent:
// set on entering DONE, cleared the instant status leaves DONE.
func (w *WorkItem) ApplyStatus(status Status, now time.Time) {
	old := w.Status
	w.Status = status
	if status == StatusDone && old != StatusDone {
		t := now.UTC()
		w.CompletionTime = &t
	} else if status != StatusDone && old == StatusDone {
		w.CompletionTime = nil
	}
}

// PriorityOrUnset returns the priority for sorting purposes. Unset priorities
// sort after priority 5.
func (w *WorkItem) PriorityOrUnset() int {
	if w.Priority == nil {
		return 6
	}
	return *w.Priority
}
