package core

import (
	"errors"
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// PlanUpdate carries partial field updates for a plan. Status is absent:
// plan status is a rollup of its stories.
type PlanUpdate struct {
	Title       *string
	Description *string
	Priority    *int
}

// PlanService defines plan CRUD and current-plan selection.
type PlanService interface {
	Create(title, description string, priority *int) (*models.Plan, error)
	Get(planID string) (*models.Plan, error)
	Update(planID string, update PlanUpdate) (*models.Plan, error)
	Delete(planID string) error
	List(statuses []models.Status) ([]models.PlanSummary, error)
	Current() (string, error)
	SetCurrent(planID string) error
}

type planService struct {
	store    PlanStore
	events   EventLogger
	defaults CreationDefaults
	now      func() time.Time
}

// NewPlanService creates a PlanService backed by the given plan store.
// events may be nil.
func NewPlanService(store PlanStore, events EventLogger, defaults CreationDefaults) PlanService {
	return &planService{
		store:    store,
		events:   events,
		defaults: defaults,
		now:      time.Now,
	}
}

func (s *planService) logEvent(planID, eventType, message string, data map[string]any) {
	if s.events != nil {
		s.events.LogEvent(planID, eventType, message, data)
	}
}

func (s *planService) Create(title, description string, priority *int) (*models.Plan, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	description, err = validateDescription(description)
	if err != nil {
		return nil, err
	}
	if err := validatePriority(priority); err != nil {
		return nil, err
	}
	if priority == nil {
		priority = s.defaults.Priority
	}

	summaries, err := s.store.ListPlans()
	if err != nil {
		return nil, persistenceError("listing plans", err)
	}
	existing := make([]string, len(summaries))
	for i, p := range summaries {
		existing[i] = p.ID
	}
	id := ensureUniqueID(generateSlug(title), existing)

	plan := &models.Plan{
		WorkItem: models.WorkItem{
			ID:           id,
			Title:        title,
			Status:       models.StatusTODO,
			Description:  description,
			Priority:     priority,
			CreationTime: s.now().UTC(),
		},
	}
	if err := s.store.SavePlan(plan); err != nil {
		return nil, persistenceError("saving plan "+id, err)
	}

	s.logEvent(id, "plan.created", "plan "+id+" created", map[string]any{
		"plan_id": id,
		"title":   title,
	})
	return plan, nil
}

func (s *planService) Get(planID string) (*models.Plan, error) {
	return loadPlan(s.store, planID)
}

func (s *planService) Update(planID string, update PlanUpdate) (*models.Plan, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		title, err := validateTitle(*update.Title)
		if err != nil {
			return nil, err
		}
		plan.Title = title
	}
	if update.Description != nil {
		description, err := validateDescription(*update.Description)
		if err != nil {
			return nil, err
		}
		plan.Description = description
	}
	if update.Priority != nil {
		if err := validatePriority(update.Priority); err != nil {
			return nil, err
		}
		plan.Priority = update.Priority
	}
	if err := s.store.SavePlan(plan); err != nil {
		return nil, persistenceError("saving plan "+planID, err)
	}
	s.logEvent(planID, "plan.updated", "plan "+planID+" updated", map[string]any{"plan_id": planID})
	return plan, nil
}

func (s *planService) Delete(planID string) error {
	if err := s.store.DeletePlan(planID); err != nil {
		if errors.Is(err, models.ErrPlanNotFound) {
			return notFoundError("plan", planID)
		}
		return persistenceError("deleting plan "+planID, err)
	}
	s.logEvent(planID, "plan.deleted", "plan "+planID+" deleted", map[string]any{"plan_id": planID})
	return nil
}

func (s *planService) List(statuses []models.Status) ([]models.PlanSummary, error) {
	summaries, err := s.store.ListPlans()
	if err != nil {
		return nil, persistenceError("listing plans", err)
	}
	if len(statuses) == 0 {
		return summaries, nil
	}
	allowed := make(map[models.Status]struct{}, len(statuses))
	for _, st := range statuses {
		allowed[st] = struct{}{}
	}
	var out []models.PlanSummary
	for _, p := range summaries {
		if _, ok := allowed[p.Status]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *planService) Current() (string, error) {
	id, err := s.store.CurrentPlanID()
	if err != nil {
		return "", persistenceError("reading current plan", err)
	}
	return id, nil
}

func (s *planService) SetCurrent(planID string) error {
	if err := s.store.SetCurrentPlanID(planID); err != nil {
		if errors.Is(err, models.ErrPlanNotFound) {
			return notFoundError("plan", planID)
		}
		return persistenceError("setting current plan", err)
	}
	return nil
}
