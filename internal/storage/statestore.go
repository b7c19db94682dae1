package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// selectionState is the on-disk shape of <plan_id>/state.yaml.
type selectionState struct {
	CurrentStoryID string `yaml:"current_story_id,omitempty"`
	CurrentTaskID  string `yaml:"current_task_id,omitempty"`
}

// StateStore persists the per-plan "current story/task" selection pointers.
// These are a convenience for interactive callers; the core services take
// explicit ids on every operation and only clear selections here when the
// selected item completes or is deleted.
type StateStore interface {
	CurrentStoryID(planID string) (string, error)
	SetCurrentStoryID(planID, storyID string) error
	CurrentTaskID(planID string) (string, error)
	SetCurrentTaskID(planID, taskID string) error
}

type fileStateStore struct {
	todoDir string
}

// NewStateStore creates a StateStore rooted at basePath, sharing the todo
// directory layout with the plan store.
func NewStateStore(basePath, todoDir string) StateStore {
	if todoDir == "" {
		todoDir = "todo"
	}
	return &fileStateStore{todoDir: filepath.Join(basePath, todoDir)}
}

func (s *fileStateStore) statePath(planID string) string {
	return filepath.Join(s.todoDir, planID, "state.yaml")
}

func (s *fileStateStore) read(planID string) (*selectionState, error) {
	data, err := os.ReadFile(s.statePath(planID))
	if err != nil {
		if os.IsNotExist(err) {
			return &selectionState{}, nil
		}
		return nil, fmt.Errorf("reading selection state: %w", err)
	}
	var st selectionState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing selection state: %w", err)
	}
	return &st, nil
}

func (s *fileStateStore) write(planID string, st *selectionState) error {
	path := s.statePath(planID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling selection state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing selection state: %w", err)
	}
	return nil
}

func (s *fileStateStore) CurrentStoryID(planID string) (string, error) {
	st, err := s.read(planID)
	if err != nil {
		return "", err
	}
	return st.CurrentStoryID, nil
}

func (s *fileStateStore) SetCurrentStoryID(planID, storyID string) error {
	st, err := s.read(planID)
	if err != nil {
		return err
	}
	st.CurrentStoryID = storyID
	return s.write(planID, st)
}

func (s *fileStateStore) CurrentTaskID(planID string) (string, error) {
	st, err := s.read(planID)
	if err != nil {
		return "", err
	}
	return st.CurrentTaskID, nil
}

func (s *fileStateStore) SetCurrentTaskID(planID, taskID string) error {
	st, err := s.read(planID)
	if err != nil {
		return err
	}
	st.CurrentTaskID = taskID
	return s.write(planID, st)
}
