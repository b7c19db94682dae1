package core

import (
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// StoryFilter specifies criteria for listing stories.
type StoryFilter struct {
	Statuses []models.Status

	// Unblocked restricts the result to TODO stories whose dependencies are
	// all DONE.
	Unblocked bool
}

// StoryUpdate carries partial field updates. Nil means "no change". Status
// is absent by design: story status is a rollup of its tasks and is never
// set directly.
type StoryUpdate struct {
	Title              *string
	Description        *string
	AcceptanceCriteria []string
	Priority           *int
	DependsOn          []string
}

// StoryService defines story CRUD. Deleting a story cascades to its tasks.
type StoryService interface {
	Create(planID, title, description string, acceptanceCriteria []string, priority *int, dependsOn []string) (*models.Story, error)
	Get(planID, storyID string) (*models.Story, error)
	Update(planID, storyID string, update StoryUpdate) (*models.Story, error)
	Delete(planID, storyID string, force bool) error
	List(planID string, filter StoryFilter) ([]*models.Story, error)
}

type storyService struct {
	store     PlanStore
	selection SelectionStore
	events    EventLogger
	defaults  CreationDefaults
	now       func() time.Time
}

// NewStoryService creates a StoryService backed by the given plan store.
// selection and events may be nil.
func NewStoryService(store PlanStore, selection SelectionStore, events EventLogger, defaults CreationDefaults) StoryService {
	return &storyService{
		store:     store,
		selection: selection,
		events:    events,
		defaults:  defaults,
		now:       time.Now,
	}
}

// mutate mirrors the task service's unit of work, returning the saved plan
// and the ids of tasks flipped by propagation (story mutations can unblock
// or block tasks that depend on the story or its tasks).
func (s *storyService) mutate(planID string, fn func(plan *models.Plan) error) (*models.Plan, []string, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return nil, nil, err
	}
	if err := fn(plan); err != nil {
		return nil, nil, err
	}
	changed := reconcile(plan, s.now())
	if err := validateGraph(plan); err != nil {
		return nil, nil, err
	}
	if err := s.store.SavePlan(plan); err != nil {
		return nil, nil, persistenceError("saving plan "+planID, err)
	}
	return plan, changed, nil
}

func (s *storyService) logEvent(planID, eventType, message string, data map[string]any) {
	if s.events != nil {
		s.events.LogEvent(planID, eventType, message, data)
	}
}

func (s *storyService) Create(planID, title, description string, acceptanceCriteria []string, priority *int, dependsOn []string) (*models.Story, error) {
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
	dependsOn, err = validateDependsOn(dependsOn)
	if err != nil {
		return nil, err
	}

	var created *models.Story
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		existing := make([]string, len(plan.Stories))
		for i, st := range plan.Stories {
			existing[i] = st.ID
		}
		id := ensureUniqueID(generateSlug(title), existing)

		created = &models.Story{
			WorkItem: models.WorkItem{
				ID:           id,
				Title:        title,
				Status:       models.StatusTODO,
				Description:  description,
				DependsOn:    dependsOn,
				Priority:     priority,
				CreationTime: s.now().UTC(),
			},
			AcceptanceCriteria: acceptanceCriteria,
		}
		plan.Stories = append(plan.Stories, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(planID, "story.created", "story "+created.ID+" created", map[string]any{
		"story_id": created.ID,
		"title":    created.Title,
	})
	logPropagatedChanges(s.events, planID, plan, changed)
	return created, nil
}

func (s *storyService) Get(planID, storyID string) (*models.Story, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return nil, err
	}
	story := plan.FindStory(storyID)
	if story == nil {
		return nil, notFoundError("story", storyID)
	}
	return story, nil
}

func (s *storyService) Update(planID, storyID string, update StoryUpdate) (*models.Story, error) {
	var updated *models.Story
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		story := plan.FindStory(storyID)
		if story == nil {
			return notFoundError("story", storyID)
		}
		if update.Title != nil {
			title, err := validateTitle(*update.Title)
			if err != nil {
				return err
			}
			story.Title = title
		}
		if update.Description != nil {
			description, err := validateDescription(*update.Description)
			if err != nil {
				return err
			}
			story.Description = description
		}
		if update.AcceptanceCriteria != nil {
			story.AcceptanceCriteria = update.AcceptanceCriteria
		}
		if update.Priority != nil {
			if err := validatePriority(update.Priority); err != nil {
				return err
			}
			story.Priority = update.Priority
		}
		if update.DependsOn != nil {
			deps, err := validateDependsOn(update.DependsOn)
			if err != nil {
				return err
			}
			story.DependsOn = deps
		}
		updated = story
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvent(planID, "story.updated", "story "+updated.ID+" updated", map[string]any{"story_id": updated.ID})
	logPropagatedChanges(s.events, planID, plan, changed)
	return updated, nil
}

func (s *storyService) Delete(planID, storyID string, force bool) error {
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		story := plan.FindStory(storyID)
		if story == nil {
			return notFoundError("story", storyID)
		}

		// Dependents on the story itself or on any of its tasks block the
		// delete: removing the story cascades to its tasks.
		targets := []string{story.ID}
		for _, t := range story.Tasks {
			targets = append(targets, t.ID)
		}
		ownedIDs := make(map[string]struct{}, len(targets))
		for _, id := range targets {
			ownedIDs[id] = struct{}{}
		}
		var dependents []string
		for _, target := range targets {
			for _, dep := range findDependents(plan, target) {
				if _, owned := ownedIDs[dep]; !owned {
					dependents = append(dependents, dep)
				}
			}
		}
		if len(dependents) > 0 && !force {
			return &Error{
				Kind:       KindValidation,
				Message:    "cannot delete story " + story.ID + ": other items depend on it or its tasks (pass force to delete anyway)",
				ID:         story.ID,
				Dependents: dependents,
			}
		}
		for _, target := range targets {
			stripDependency(plan, target)
		}

		kept := plan.Stories[:0]
		for _, st := range plan.Stories {
			if st.ID != storyID {
				kept = append(kept, st)
			}
		}
		plan.Stories = kept
		return nil
	})
	if err != nil {
		return err
	}

	s.clearSelection(planID, storyID)
	s.logEvent(planID, "story.deleted", "story "+storyID+" deleted", map[string]any{"story_id": storyID})
	logPropagatedChanges(s.events, planID, plan, changed)
	return nil
}

func (s *storyService) List(planID string, filter StoryFilter) ([]*models.Story, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return nil, err
	}

	allowed := make(map[models.Status]struct{}, len(filter.Statuses))
	for _, st := range filter.Statuses {
		allowed[st] = struct{}{}
	}

	var stories []*models.Story
	for _, story := range topoSortStories(plan.Stories) {
		if len(allowed) > 0 {
			if _, ok := allowed[story.Status]; !ok {
				continue
			}
		}
		if filter.Unblocked {
			if story.Status != models.StatusTODO || !storyUnblocked(plan, story) {
				continue
			}
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// storyUnblocked reports whether every dependency of the story is DONE.
func storyUnblocked(plan *models.Plan, story *models.Story) bool {
	idx := indexPlan(plan)
	for _, dep := range story.DependsOn {
		if !dependencyDone(idx, "", dep) {
			return false
		}
	}
	return true
}

// clearSelection drops current story/task pointers referencing the deleted
// story. Best-effort.
func (s *storyService) clearSelection(planID, storyID string) {
	if s.selection == nil {
		return
	}
	if current, err := s.selection.CurrentStoryID(planID); err == nil && current == storyID {
		_ = s.selection.SetCurrentStoryID(planID, "")
	}
	if current, err := s.selection.CurrentTaskID(planID); err == nil {
		if owner, _ := models.SplitTaskID(current); owner == storyID {
			_ = s.selection.SetCurrentTaskID(planID, "")
		}
	}
}
