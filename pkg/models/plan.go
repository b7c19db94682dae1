package models

import "errors"

// ErrPlanNotFound is returned by plan stores when no plan exists for the
// requested id.
var ErrPlanNotFound = errors.New("plan not found")

// Plan is the top-level container of stories. Like Story, its status is a
// rollup of its children and never independently settable.
type Plan struct {
	WorkItem `yaml:",inline"`

	Stories []*Story `yaml:"stories,omitempty"`
}

// FindStory looks up a story by id.
func (p *Plan) FindStory(storyID string) *Story {
	for _, s := range p.Stories {
		if s.ID == storyID {
			return s
		}
	}
	return nil
}

// FindTask looks up a task by fully-qualified id, returning its owning story
// as well. Returns (nil, nil) when not found.
func (p *Plan) FindTask(taskID string) (*Story, *Task) {
	storyID, _ := SplitTaskID(taskID)
	if storyID == "" {
		return nil, nil
	}
	story := p.FindStory(storyID)
	if story == nil {
		return nil, nil
	}
	return story, story.FindTask(taskID)
}

// AllTasks returns every task in the plan, stories in order, tasks in
// insertion order within each story.
func (p *Plan) AllTasks() []*Task {
	var out []*Task
	for _, s := range p.Stories {
		out = append(out, s.Tasks...)
	}
	return out
}

// StoryStatuses returns the statuses of all stories in order.
func (p *Plan) StoryStatuses() []Status {
	out := make([]Status, len(p.Stories))
	for i, s := range p.Stories {
		out[i] = s.Status
	}
	return out
}

// PlanSummary is the index entry for a plan in plans.yaml.
type PlanSummary struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Status Status `yaml:"status"`
}

// ChangelogEntry is the structured record returned when a review is
// approved. The transport layer decides how to render it; the core never
// formats markdown.
type ChangelogEntry struct {
	TaskID           string `json:"task_id" yaml:"task_id"`
	Title            string `json:"title" yaml:"title"`
	ExecutionSummary string `json:"execution_summary" yaml:"execution_summary"`
	ReworkCount      int    `json:"rework_count" yaml:"rework_count"`
}
