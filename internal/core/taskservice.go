package core

import (
	"errors"
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// TaskFilter specifies criteria for listing tasks. Zero values mean "no
// filter"; Unblocked restricts the result to TODO tasks whose dependencies
// are all DONE.
type TaskFilter struct {
	StoryID   string
	Statuses  []models.Status
	Unblocked bool
}

// TaskUpdate carries partial field updates. Nil fields mean "no change"; a
// non-nil empty DependsOn clears the dependency list. Status is deliberately
// absent: task status only moves through the lifecycle operations.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *int
	DependsOn   []string
}

// TaskService defines task CRUD and the gated lifecycle operations. Task ids
// may be given locally (with storyID) or fully-qualified ("story:task", in
// which case storyID may be empty or must match).
type TaskService interface {
	Create(planID, storyID, title, description string, priority *int, dependsOn []string) (*models.Task, error)
	Get(planID, storyID, taskID string) (*models.Task, error)
	Update(planID, storyID, taskID string, update TaskUpdate) (*models.Task, error)
	Delete(planID, storyID, taskID string, force bool) error
	List(planID string, filter TaskFilter) ([]*models.Task, error)
	SetSteps(planID, storyID, taskID string, steps []models.Step) (*models.Task, error)

	Start(planID, storyID, taskID string) (*models.Task, error)
	SubmitForReview(planID, storyID, taskID, summary string) (*models.Task, error)
	RequestChanges(planID, storyID, taskID, feedback string) (*models.Task, error)
	ApproveReview(planID, storyID, taskID string) (*models.Task, *models.ChangelogEntry, error)
	Defer(planID, storyID, taskID string) (*models.Task, error)
	Undefer(planID, storyID, taskID string) (*models.Task, error)
}

type taskService struct {
	store     PlanStore
	selection SelectionStore
	events    EventLogger
	defaults  CreationDefaults
	now       func() time.Time
}

// NewTaskService creates a TaskService backed by the given plan store.
// selection and events may be nil.
func NewTaskService(store PlanStore, selection SelectionStore, events EventLogger, defaults CreationDefaults) TaskService {
	return &taskService{
		store:     store,
		selection: selection,
		events:    events,
		defaults:  defaults,
		now:       time.Now,
	}
}

// loadPlan maps store failures into the domain error taxonomy.
func loadPlan(store PlanStore, planID string) (*models.Plan, error) {
	plan, err := store.LoadPlan(planID)
	if err != nil {
		if errors.Is(err, models.ErrPlanNotFound) {
			return nil, notFoundError("plan", planID)
		}
		return nil, persistenceError("loading plan "+planID, err)
	}
	return plan, nil
}

// mutate applies one unit of work to a freshly loaded plan graph:
// load, mutate, propagate blockers, roll up statuses, validate, save once.
// Any failure before save discards the in-memory copy, so memory and disk
// never diverge and re-issuing the request is safe. The saved plan and the
// ids of tasks flipped by propagation are returned so callers can log the
// induced status changes alongside their own.
func (s *taskService) mutate(planID string, fn func(plan *models.Plan) error) (*models.Plan, []string, error) {
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

// resolveTask finds a task by local or fully-qualified id, returning its
// owning story.
func resolveTask(plan *models.Plan, storyID, taskID string) (*models.Story, *models.Task, error) {
	if fqStory, _ := models.SplitTaskID(taskID); fqStory != "" {
		if storyID != "" && storyID != fqStory {
			return nil, nil, validationError("mismatched story id: provided %q but task id names %q", storyID, fqStory)
		}
		storyID = fqStory
	}
	if storyID == "" {
		return nil, nil, validationError("task id %q is not fully qualified and no story id was provided", taskID)
	}
	story := plan.FindStory(storyID)
	if story == nil {
		return nil, nil, notFoundError("story", storyID)
	}
	task := story.FindTask(taskID)
	if task == nil {
		return nil, nil, notFoundError("task", models.QualifiedTaskID(storyID, taskID))
	}
	return story, task, nil
}

func (s *taskService) logEvent(planID, eventType, message string, data map[string]any) {
	if s.events != nil {
		s.events.LogEvent(planID, eventType, message, data)
	}
}

func (s *taskService) logStatusChange(planID string, task *models.Task, from, to models.Status) {
	if to != from {
		s.logEvent(planID, "task.status_changed", "task "+task.ID+" moved to "+string(to), map[string]any{
			"task_id": task.ID,
			"from":    string(from),
			"to":      string(to),
		})
	}
}

func (s *taskService) Create(planID, storyID, title, description string, priority *int, dependsOn []string) (*models.Task, error) {
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

	var created *models.Task
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		story := plan.FindStory(storyID)
		if story == nil {
			return notFoundError("story", storyID)
		}

		existing := make([]string, len(story.Tasks))
		for i, t := range story.Tasks {
			existing[i] = t.LocalID()
		}
		localID := ensureUniqueID(generateSlug(title), existing)

		created = &models.Task{
			WorkItem: models.WorkItem{
				ID:           models.QualifiedTaskID(story.ID, localID),
				Title:        title,
				Status:       models.StatusTODO,
				Description:  description,
				DependsOn:    dependsOn,
				Priority:     priority,
				CreationTime: s.now().UTC(),
			},
			StoryID: story.ID,
		}
		story.Tasks = append(story.Tasks, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(planID, "task.created", "task "+created.ID+" created", map[string]any{
		"task_id": created.ID,
		"title":   created.Title,
	})
	logPropagatedChanges(s.events, planID, plan, changed)
	return created, nil
}

func (s *taskService) Get(planID, storyID, taskID string) (*models.Task, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return nil, err
	}
	_, task, err := resolveTask(plan, storyID, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Update(planID, storyID, taskID string, update TaskUpdate) (*models.Task, error) {
	var updated *models.Task
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		_, task, err := resolveTask(plan, storyID, taskID)
		if err != nil {
			return err
		}
		if update.Title != nil {
			title, err := validateTitle(*update.Title)
			if err != nil {
				return err
			}
			// The id stays stable: it was derived from the title at
			// creation and other items may reference it.
			task.Title = title
		}
		if update.Description != nil {
			description, err := validateDescription(*update.Description)
			if err != nil {
				return err
			}
			task.Description = description
		}
		if update.Priority != nil {
			if err := validatePriority(update.Priority); err != nil {
				return err
			}
			task.Priority = update.Priority
		}
		if update.DependsOn != nil {
			deps, err := validateDependsOn(update.DependsOn)
			if err != nil {
				return err
			}
			task.DependsOn = deps
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvent(planID, "task.updated", "task "+updated.ID+" updated", map[string]any{"task_id": updated.ID})
	logPropagatedChanges(s.events, planID, plan, changed)
	return updated, nil
}

func (s *taskService) Delete(planID, storyID, taskID string, force bool) error {
	var deletedID string
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		story, task, err := resolveTask(plan, storyID, taskID)
		if err != nil {
			return err
		}
		dependents := findDependents(plan, task.ID)
		if len(dependents) > 0 && !force {
			return &Error{
				Kind:       KindValidation,
				Message:    "cannot delete task " + task.ID + ": other items depend on it (pass force to delete anyway)",
				ID:         task.ID,
				Dependents: dependents,
			}
		}
		if len(dependents) > 0 {
			stripDependency(plan, task.ID)
		}
		kept := story.Tasks[:0]
		for _, t := range story.Tasks {
			if t.ID != task.ID {
				kept = append(kept, t)
			}
		}
		story.Tasks = kept
		deletedID = task.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.clearTaskSelection(planID, deletedID)
	s.logEvent(planID, "task.deleted", "task "+deletedID+" deleted", map[string]any{"task_id": deletedID})
	logPropagatedChanges(s.events, planID, plan, changed)
	return nil
}

func (s *taskService) List(planID string, filter TaskFilter) ([]*models.Task, error) {
	plan, err := loadPlan(s.store, planID)
	if err != nil {
		return nil, err
	}
	if filter.StoryID != "" && plan.FindStory(filter.StoryID) == nil {
		return nil, notFoundError("story", filter.StoryID)
	}

	allowed := make(map[models.Status]struct{}, len(filter.Statuses))
	for _, st := range filter.Statuses {
		allowed[st] = struct{}{}
	}

	var tasks []*models.Task
	for _, story := range plan.Stories {
		if filter.StoryID != "" && story.ID != filter.StoryID {
			continue
		}
		for _, task := range story.Tasks {
			if len(allowed) > 0 {
				if _, ok := allowed[task.Status]; !ok {
					continue
				}
			}
			if filter.Unblocked {
				if task.Status != models.StatusTODO || len(unmetDependencies(plan, task)) > 0 {
					continue
				}
			}
			tasks = append(tasks, task)
		}
	}
	return topoSortTasks(plan, tasks), nil
}

func (s *taskService) SetSteps(planID, storyID, taskID string, steps []models.Step) (*models.Task, error) {
	clean, err := validateSteps(steps)
	if err != nil {
		return nil, err
	}

	var updated *models.Task
	_, _, err = s.mutate(planID, func(plan *models.Plan) error {
		_, task, err := resolveTask(plan, storyID, taskID)
		if err != nil {
			return err
		}
		if task.Status != models.StatusTODO && task.Status != models.StatusInProgress {
			return invalidTransitionError(task.ID, "set_steps", task.Status)
		}
		// Wholesale replacement: steps are never merged.
		task.Steps = clean
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvent(planID, "task.steps_set", "task "+updated.ID+" steps replaced", map[string]any{
		"task_id": updated.ID,
		"steps":   len(updated.Steps),
	})
	return updated, nil
}

func (s *taskService) Start(planID, storyID, taskID string) (*models.Task, error) {
	return s.transition(planID, storyID, taskID, func(plan *models.Plan, task *models.Task) error {
		return startTask(plan, task, s.now())
	})
}

func (s *taskService) SubmitForReview(planID, storyID, taskID, summary string) (*models.Task, error) {
	return s.transition(planID, storyID, taskID, func(_ *models.Plan, task *models.Task) error {
		return submitForReview(task, summary, s.now())
	})
}

func (s *taskService) RequestChanges(planID, storyID, taskID, feedback string) (*models.Task, error) {
	return s.transition(planID, storyID, taskID, func(_ *models.Plan, task *models.Task) error {
		return requestChanges(task, feedback, s.now())
	})
}

func (s *taskService) ApproveReview(planID, storyID, taskID string) (*models.Task, *models.ChangelogEntry, error) {
	var entry models.ChangelogEntry
	task, err := s.transition(planID, storyID, taskID, func(_ *models.Plan, task *models.Task) error {
		e, err := approveReview(task, s.now())
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	// Completing the selected task clears the selection.
	s.clearTaskSelection(planID, task.ID)
	return task, &entry, nil
}

func (s *taskService) Defer(planID, storyID, taskID string) (*models.Task, error) {
	return s.transition(planID, storyID, taskID, func(_ *models.Plan, task *models.Task) error {
		return deferTask(task, s.now())
	})
}

func (s *taskService) Undefer(planID, storyID, taskID string) (*models.Task, error) {
	return s.transition(planID, storyID, taskID, func(_ *models.Plan, task *models.Task) error {
		return undeferTask(task, s.now())
	})
}

// transition runs one lifecycle operation as a unit of work and logs the
// resulting status change, followed by any changes induced by propagation.
// The operated task's own transition is captured before reconcile runs so
// the two are reported separately (undeferring a task with unmet
// dependencies logs DEFERRED->TODO and then TODO->BLOCKED).
func (s *taskService) transition(planID, storyID, taskID string, op func(*models.Plan, *models.Task) error) (*models.Task, error) {
	var task *models.Task
	var from, to models.Status
	plan, changed, err := s.mutate(planID, func(plan *models.Plan) error {
		var err error
		_, task, err = resolveTask(plan, storyID, taskID)
		if err != nil {
			return err
		}
		from = task.Status
		if err := op(plan, task); err != nil {
			return err
		}
		to = task.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logStatusChange(planID, task, from, to)
	logPropagatedChanges(s.events, planID, plan, changed)
	return task, nil
}

// clearTaskSelection drops the current-task pointer if it references the
// given task. Best-effort: selection state never blocks a mutation.
func (s *taskService) clearTaskSelection(planID, taskID string) {
	if s.selection == nil {
		return
	}
	if current, err := s.selection.CurrentTaskID(planID); err == nil && current == taskID {
		_ = s.selection.SetCurrentTaskID(planID, "")
	}
}
