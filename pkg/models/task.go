package models

import (
	"strings"
	"time"
)

// Step is a single implementation step in a task's plan.
type Step struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// FeedbackRecord is one rework request from a review. The review_feedback
// list is append-only: records are never edited or removed.
type FeedbackRecord struct {
	Message   string    `yaml:"message"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Task is the atomic unit of executable work and the only entity whose
// status is driven directly by lifecycle operations. Task IDs are
// fully-qualified as "story_id:local_id" and unique within their story.
type Task struct {
	WorkItem `yaml:",inline"`

	// StoryID is the owning story. Immutable after creation.
	StoryID string `yaml:"story_id"`

	// Steps is the implementation plan. Empty means fast-track: StartTask
	// seeds a single placeholder step. Replaced wholesale, never patched.
	Steps []Step `yaml:"steps,omitempty"`

	// ExecutionSummary is set when submitting for review and cleared when a
	// review requests changes.
	ExecutionSummary string `yaml:"execution_summary,omitempty"`

	// ReviewFeedback accumulates rework requests. Append-only.
	ReviewFeedback []FeedbackRecord `yaml:"review_feedback,omitempty"`

	// ReworkCount is incremented each time a review sends the task back to
	// IN_PROGRESS. Monotonically non-decreasing.
	ReworkCount int `yaml:"rework_count,omitempty"`
}

// LocalID returns the task id without the story prefix.
func (t *Task) LocalID() string {
	return LocalTaskID(t.ID)
}

// QualifiedTaskID builds a fully-qualified task id from a story id and a
// local task id. Already-qualified ids pass through unchanged.
func QualifiedTaskID(storyID, taskID string) string {
	if strings.Contains(taskID, ":") {
		return taskID
	}
	return storyID + ":" + taskID
}

// LocalTaskID strips the story prefix from a fully-qualified task id.
func LocalTaskID(taskID string) string {
	if i := strings.IndexByte(taskID, ':'); i >= 0 {
		return taskID[i+1:]
	}
	return taskID
}

// SplitTaskID splits a fully-qualified task id into story and local parts.
// For a local id the story part is empty.
func SplitTaskID(taskID string) (storyID, localID string) {
	if i := strings.IndexByte(taskID, ':'); i >= 0 {
		return taskID[:i], taskID[i+1:]
	}
	return "", taskID
}
