package models

// Story is a user-facing goal containing tasks. Task insertion order is
// creation order and is preserved across save/load; listings use it as a
// tie-break. Story status is derived from its tasks by the rollup engine and
// is never set directly.
type Story struct {
	WorkItem `yaml:",inline"`

	AcceptanceCriteria []string `yaml:"acceptance_criteria,omitempty"`

	// Tasks are embedded in the story: the persisted graph stores task
	// objects under their owning story rather than as independent entities.
	Tasks []*Task `yaml:"tasks,omitempty"`
}

// FindTask looks up a task by local or fully-qualified id.
func (s *Story) FindTask(taskID string) *Task {
	fq := QualifiedTaskID(s.ID, taskID)
	for _, t := range s.Tasks {
		if t.ID == fq {
			return t
		}
	}
	return nil
}

// TaskStatuses returns the statuses of all tasks in insertion order.
func (s *Story) TaskStatuses() []Status {
	out := make([]Status, len(s.Tasks))
	for i, t := range s.Tasks {
		out[i] = t.Status
	}
	return out
}
