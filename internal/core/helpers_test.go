package core

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// memPlanStore is an in-memory PlanStore for service tests.
type memPlanStore struct {
	plans   map[string]*models.Plan
	current string
	saves   int
}

func newMemPlanStore() *memPlanStore {
	return &memPlanStore{plans: make(map[string]*models.Plan)}
}

func (m *memPlanStore) LoadPlan(planID string) (*models.Plan, error) {
	p, ok := m.plans[planID]
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", planID, models.ErrPlanNotFound)
	}
	// Return an independent snapshot, matching filePlanStore: mutations
	// aborted before SavePlan must not leak into the store. Round-trip
	// through YAML like the real store does.
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, err
	}
	var copied models.Plan
	if err := yaml.Unmarshal(data, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (m *memPlanStore) SavePlan(plan *models.Plan) error {
	m.plans[plan.ID] = plan
	m.saves++
	if m.current == "" {
		m.current = plan.ID
	}
	return nil
}

func (m *memPlanStore) DeletePlan(planID string) error {
	if _, ok := m.plans[planID]; !ok {
		return fmt.Errorf("plan %q: %w", planID, models.ErrPlanNotFound)
	}
	delete(m.plans, planID)
	return nil
}

func (m *memPlanStore) ListPlans() ([]models.PlanSummary, error) {
	var out []models.PlanSummary
	for _, p := range m.plans {
		out = append(out, models.PlanSummary{ID: p.ID, Title: p.Title, Status: p.Status})
	}
	return out, nil
}

func (m *memPlanStore) CurrentPlanID() (string, error) {
	if m.current == "" {
		return "", fmt.Errorf("no current plan")
	}
	return m.current, nil
}

func (m *memPlanStore) SetCurrentPlanID(planID string) error {
	if _, ok := m.plans[planID]; !ok {
		return fmt.Errorf("plan %q: %w", planID, models.ErrPlanNotFound)
	}
	m.current = planID
	return nil
}

// memSelection is an in-memory SelectionStore.
type memSelection struct {
	stories map[string]string
	tasks   map[string]string
}

func newMemSelection() *memSelection {
	return &memSelection{stories: make(map[string]string), tasks: make(map[string]string)}
}

func (m *memSelection) CurrentStoryID(planID string) (string, error) { return m.stories[planID], nil }
func (m *memSelection) SetCurrentStoryID(planID, storyID string) error {
	m.stories[planID] = storyID
	return nil
}
func (m *memSelection) CurrentTaskID(planID string) (string, error) { return m.tasks[planID], nil }
func (m *memSelection) SetCurrentTaskID(planID, taskID string) error {
	m.tasks[planID] = taskID
	return nil
}

// capturedEvent records one LogEvent call.
type capturedEvent struct {
	planID    string
	eventType string
	data      map[string]any
}

type memEvents struct {
	events []capturedEvent
}

func (m *memEvents) LogEvent(planID, eventType, message string, data map[string]any) {
	m.events = append(m.events, capturedEvent{planID: planID, eventType: eventType, data: data})
}

func (m *memEvents) ofType(eventType string) []capturedEvent {
	var out []capturedEvent
	for _, e := range m.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTask builds a TODO task owned by storyID.
func newTask(storyID, localID string, deps ...string) *models.Task {
	return &models.Task{
		WorkItem: models.WorkItem{
			ID:           models.QualifiedTaskID(storyID, localID),
			Title:        "Task " + localID,
			Status:       models.StatusTODO,
			DependsOn:    deps,
			CreationTime: testTime,
		},
		StoryID: storyID,
	}
}

// newStory builds a TODO story with the given tasks.
func newStory(id string, tasks ...*models.Task) *models.Story {
	return &models.Story{
		WorkItem: models.WorkItem{
			ID:           id,
			Title:        "Story " + id,
			Status:       models.StatusTODO,
			CreationTime: testTime,
		},
		Tasks: tasks,
	}
}

// newPlan builds a TODO plan with the given stories.
func newPlan(id string, stories ...*models.Story) *models.Plan {
	return &models.Plan{
		WorkItem: models.WorkItem{
			ID:           id,
			Title:        "Plan " + id,
			Status:       models.StatusTODO,
			CreationTime: testTime,
		},
		Stories: stories,
	}
}

// fixedClock pins a service's clock for deterministic timestamps.
func fixedClock(svc any) {
	switch s := svc.(type) {
	case *taskService:
		s.now = func() time.Time { return testTime }
	case *storyService:
		s.now = func() time.Time { return testTime }
	case *planService:
		s.now = func() time.Time { return testTime }
	}
}
