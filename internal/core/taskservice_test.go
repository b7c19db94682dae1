package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// newTaskFixture wires a task service over an in-memory store seeded with
// one plan containing the given stories.
func newTaskFixture(t *testing.T, stories ...*models.Story) (*memPlanStore, *memSelection, *memEvents, TaskService) {
	t.Helper()
	store := newMemPlanStore()
	store.plans["p"] = newPlan("p", stories...)
	selection := newMemSelection()
	events := &memEvents{}
	svc := NewTaskService(store, selection, events, CreationDefaults{})
	fixedClock(svc)
	return store, selection, events, svc
}

func TestTaskCreate_SlugIDs(t *testing.T) {
	_, _, events, svc := newTaskFixture(t, newStory("s1"))

	task, err := svc.Create("p", "s1", "Implement API Client", "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "s1:implement-api-client" {
		t.Fatalf("unexpected id %q", task.ID)
	}
	if task.Status != models.StatusTODO {
		t.Fatalf("new task status = %s, want TODO", task.Status)
	}

	// Same title gets a numeric suffix within the story.
	dup, err := svc.Create("p", "s1", "Implement API Client", "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup.ID != "s1:implement-api-client-2" {
		t.Fatalf("unexpected id %q", dup.ID)
	}

	if got := events.ofType("task.created"); len(got) != 2 {
		t.Fatalf("expected 2 task.created events, got %d", len(got))
	}
}

func TestTaskCreate_StoryNotFound(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1"))

	_, err := svc.Create("p", "ghost", "Title", "", nil, nil)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTaskCreate_UnknownDependencyRejected(t *testing.T) {
	store, _, _, svc := newTaskFixture(t, newStory("s1"))

	_, err := svc.Create("p", "s1", "Title", "", nil, []string{"ghost"})
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	// The failed mutation must not be persisted.
	if len(store.plans["p"].AllTasks()) != 0 {
		t.Fatal("rejected task was persisted")
	}
}

func TestTaskLifecycle_HappyPath(t *testing.T) {
	store, _, events, svc := newTaskFixture(t, newStory("s1"))

	if _, err := svc.Create("p", "s1", "Build parser", "", nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	task, err := svc.Start("p", "s1", "build-parser")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if task.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", task.Status)
	}

	task, err = svc.SubmitForReview("p", "", "s1:build-parser", "parser built and tested")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if task.Status != models.StatusPendingReview {
		t.Fatalf("status = %s, want PENDING_REVIEW", task.Status)
	}

	task, entry, err := svc.ApproveReview("p", "s1", "build-parser")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if task.Status != models.StatusDone || task.CompletionTime == nil {
		t.Fatalf("expected DONE with completion time, got %s %v", task.Status, task.CompletionTime)
	}
	if entry.ExecutionSummary != "parser built and tested" {
		t.Fatalf("unexpected changelog entry: %+v", entry)
	}

	// Story and plan rolled up to DONE.
	plan := store.plans["p"]
	if plan.FindStory("s1").Status != models.StatusDone || plan.Status != models.StatusDone {
		t.Fatalf("rollup failed: story=%s plan=%s", plan.FindStory("s1").Status, plan.Status)
	}

	changes := events.ofType("task.status_changed")
	if len(changes) != 3 {
		t.Fatalf("expected 3 status change events, got %d", len(changes))
	}
	if changes[2].data["from"] != "PENDING_REVIEW" || changes[2].data["to"] != "DONE" {
		t.Fatalf("unexpected final transition: %v", changes[2].data)
	}
}

func TestTaskRework_Cycle(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1", newTask("s1", "a")))

	if _, err := svc.Start("p", "s1", "a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SubmitForReview("p", "s1", "a", "first pass"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	task, err := svc.RequestChanges("p", "s1", "a", "missing tests")
	if err != nil {
		t.Fatalf("request changes: %v", err)
	}
	if task.Status != models.StatusInProgress || task.ReworkCount != 1 {
		t.Fatalf("unexpected state after rework: %s rework=%d", task.Status, task.ReworkCount)
	}
	if task.ExecutionSummary != "" {
		t.Fatalf("stale summary kept: %q", task.ExecutionSummary)
	}

	// Second submission carries the rework count through approval.
	if _, err := svc.SubmitForReview("p", "s1", "a", "second pass with tests"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	_, entry, err := svc.ApproveReview("p", "s1", "a")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if entry.ReworkCount != 1 || entry.ExecutionSummary != "second pass with tests" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestTaskStart_DependencyGate(t *testing.T) {
	dep := newTask("s1", "dep")
	task := newTask("s1", "a", "dep")
	store, _, _, svc := newTaskFixture(t, newStory("s1", dep, task))

	// Reconcile on any mutation would mark it BLOCKED; calling start
	// directly on the TODO task reports the unmet set.
	_, err := svc.Start("p", "s1", "a")
	var de *Error
	if !errors.As(err, &de) || de.Kind != KindDependencyUnmet {
		t.Fatalf("expected DependencyUnmet, got %v", err)
	}
	if !reflect.DeepEqual(de.UnmetDependencies, []string{"dep"}) {
		t.Fatalf("unexpected unmet list: %v", de.UnmetDependencies)
	}

	// Complete the dependency through the normal gates, then start works
	// and the dependent was flipped back to TODO by propagation.
	if _, err := svc.Start("p", "s1", "dep"); err != nil {
		t.Fatalf("start dep: %v", err)
	}
	if _, err := svc.SubmitForReview("p", "s1", "dep", "done"); err != nil {
		t.Fatalf("submit dep: %v", err)
	}
	if _, _, err := svc.ApproveReview("p", "s1", "dep"); err != nil {
		t.Fatalf("approve dep: %v", err)
	}

	got, err := svc.Start("p", "s1", "a")
	if err != nil {
		t.Fatalf("start after unblock: %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got.Status)
	}
	_ = store
}

func TestTaskUpdate_CycleRejectedAtomically(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	store, _, _, svc := newTaskFixture(t, newStory("s1", a, b))
	savesBefore := store.saves

	_, err := svc.Update("p", "s1", "a", TaskUpdate{DependsOn: []string{"b"}})
	if KindOf(err) != KindCycleDetected {
		t.Fatalf("expected CycleDetected, got %v", err)
	}
	if store.saves != savesBefore {
		t.Fatal("rejected mutation was saved")
	}
}

func TestTaskUpdate_IDStaysStable(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1", newTask("s1", "a")))

	title := "Completely New Title"
	task, err := svc.Update("p", "s1", "a", TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "s1:a" || task.Title != title {
		t.Fatalf("unexpected task after rename: %s %q", task.ID, task.Title)
	}
}

func TestTaskDelete_DependentsBlockWithoutForce(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	store, _, _, svc := newTaskFixture(t, newStory("s1", a, b))

	err := svc.Delete("p", "s1", "a", false)
	var de *Error
	if !errors.As(err, &de) || de.Kind != KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
	if !reflect.DeepEqual(de.Dependents, []string{"s1:b"}) {
		t.Fatalf("unexpected dependents: %v", de.Dependents)
	}

	// Forced delete removes the task and strips dangling references.
	if err := svc.Delete("p", "s1", "a", true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	plan := store.plans["p"]
	if _, task := plan.FindTask("s1:a"); task != nil {
		t.Fatal("task still present after delete")
	}
	if _, remaining := plan.FindTask("s1:b"); remaining.DependsOn != nil {
		t.Fatalf("dangling reference kept: %v", remaining.DependsOn)
	}
}

func TestTaskApprove_ClearsSelection(t *testing.T) {
	_, selection, _, svc := newTaskFixture(t, newStory("s1", newTask("s1", "a")))
	_ = selection.SetCurrentTaskID("p", "s1:a")

	if _, err := svc.Start("p", "s1", "a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SubmitForReview("p", "s1", "a", "done"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := svc.ApproveReview("p", "s1", "a"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if current, _ := selection.CurrentTaskID("p"); current != "" {
		t.Fatalf("selection not cleared: %q", current)
	}
}

func TestTaskSetSteps(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1", newTask("s1", "a")))

	task, err := svc.SetSteps("p", "s1", "a", []models.Step{{Title: "one"}, {Title: "two"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(task.Steps) != 2 {
		t.Fatalf("unexpected steps: %v", task.Steps)
	}

	// Replacement, not merge.
	task, err = svc.SetSteps("p", "s1", "a", []models.Step{{Title: "only"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(task.Steps) != 1 || task.Steps[0].Title != "only" {
		t.Fatalf("steps merged instead of replaced: %v", task.Steps)
	}
}

func TestTaskSetSteps_RejectedAfterReview(t *testing.T) {
	task := newTask("s1", "a")
	task.Status = models.StatusPendingReview
	_, _, _, svc := newTaskFixture(t, newStory("s1", task))

	_, err := svc.SetSteps("p", "s1", "a", []models.Step{{Title: "late"}})
	if KindOf(err) != KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestTaskList_FiltersAndOrder(t *testing.T) {
	p0 := 0
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	c := newTask("s1", "c")
	c.Priority = &p0
	_, _, _, svc := newTaskFixture(t, newStory("s1", a, b, c))

	tasks, err := svc.List("p", TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// c (priority 0) before a (unset), b after its dependency a.
	gotIDs := make([]string, len(tasks))
	for i, task := range tasks {
		gotIDs[i] = task.ID
	}
	want := []string{"s1:c", "s1:a", "s1:b"}
	if !reflect.DeepEqual(gotIDs, want) {
		t.Fatalf("expected order %v, got %v", want, gotIDs)
	}

	unblocked, err := svc.List("p", TaskFilter{Unblocked: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unblocked) != 2 {
		t.Fatalf("expected 2 unblocked tasks, got %d", len(unblocked))
	}

	filtered, err := svc.List("p", TaskFilter{Statuses: []models.Status{models.StatusTODO}, StoryID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 3 {
		t.Fatalf("expected 3 TODO tasks, got %d", len(filtered))
	}
}

func TestTaskService_PlanNotFound(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1"))

	_, err := svc.Get("ghost", "s1", "a")
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTaskResolve_MismatchedStory(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1", newTask("s1", "a")))

	_, err := svc.Get("p", "s2", "s1:a")
	if KindOf(err) != KindValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestTaskDeferUndefer_Service(t *testing.T) {
	_, _, _, svc := newTaskFixture(t, newStory("s1", newTask("s1", "a")))

	task, err := svc.Defer("p", "s1", "a")
	if err != nil {
		t.Fatalf("defer: %v", err)
	}
	if task.Status != models.StatusDeferred {
		t.Fatalf("status = %s, want DEFERRED", task.Status)
	}

	task, err = svc.Undefer("p", "s1", "a")
	if err != nil {
		t.Fatalf("undefer: %v", err)
	}
	if task.Status != models.StatusTODO {
		t.Fatalf("status = %s, want TODO", task.Status)
	}
}

func TestTaskCreate_BlockedImmediately(t *testing.T) {
	dep := newTask("s1", "dep")
	store, _, events, svc := newTaskFixture(t, newStory("s1", dep))

	// A new task with an unmet dependency lands in BLOCKED after the
	// post-mutation reconcile.
	if _, err := svc.Create("p", "s1", "Dependent work", "", nil, []string{"dep"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, task := store.plans["p"].FindTask("s1:dependent-work")
	if task.Status != models.StatusBlocked {
		t.Fatalf("status = %s, want BLOCKED", task.Status)
	}

	// The reconcile flip shows up in the event log like any other
	// transition.
	changes := events.ofType("task.status_changed")
	if len(changes) != 1 {
		t.Fatalf("expected 1 task.status_changed event, got %d", len(changes))
	}
	if changes[0].data["task_id"] != "s1:dependent-work" ||
		changes[0].data["from"] != "TODO" || changes[0].data["to"] != "BLOCKED" {
		t.Fatalf("unexpected event data %v", changes[0].data)
	}
}

func TestTaskTransitions_PropagationEmitsEvents(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	_, _, events, svc := newTaskFixture(t, newStory("s1", a, b))

	// Starting a leaves its dependent unmet, so the reconcile flips b to
	// BLOCKED and that flip must reach the event log.
	if _, err := svc.Start("p", "s1", "a"); err != nil {
		t.Fatalf("start: %v", err)
	}
	changes := events.ofType("task.status_changed")
	if len(changes) != 2 {
		t.Fatalf("expected 2 task.status_changed events, got %d", len(changes))
	}
	// The direct transition is logged before the propagated one.
	if changes[0].data["task_id"] != "s1:a" || changes[0].data["to"] != "IN_PROGRESS" {
		t.Fatalf("unexpected first event %v", changes[0].data)
	}
	if changes[1].data["task_id"] != "s1:b" ||
		changes[1].data["from"] != "TODO" || changes[1].data["to"] != "BLOCKED" {
		t.Fatalf("unexpected propagation event %v", changes[1].data)
	}

	// Completing a unblocks b; that flip is logged too.
	if _, err := svc.SubmitForReview("p", "s1", "a", "done"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := svc.ApproveReview("p", "s1", "a"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	changes = events.ofType("task.status_changed")
	last := changes[len(changes)-1]
	if last.data["task_id"] != "s1:b" ||
		last.data["from"] != "BLOCKED" || last.data["to"] != "TODO" {
		t.Fatalf("expected BLOCKED->TODO event for s1:b, got %v", last.data)
	}
}

func TestTaskUndefer_BlockedFlipLoggedAfterDirectTransition(t *testing.T) {
	a := newTask("s1", "a")
	d := newTask("s1", "d", "a")
	d.Status = models.StatusDeferred
	_, _, events, svc := newTaskFixture(t, newStory("s1", a, d))

	// Undeferring with an unmet dependency lands in BLOCKED. The log keeps
	// both hops in order: DEFERRED->TODO from the operation, then
	// TODO->BLOCKED from the reconcile.
	task, err := svc.Undefer("p", "s1", "d")
	if err != nil {
		t.Fatalf("undefer: %v", err)
	}
	if task.Status != models.StatusBlocked {
		t.Fatalf("status = %s, want BLOCKED", task.Status)
	}
	changes := events.ofType("task.status_changed")
	if len(changes) != 2 {
		t.Fatalf("expected 2 task.status_changed events, got %d", len(changes))
	}
	if changes[0].data["from"] != "DEFERRED" || changes[0].data["to"] != "TODO" {
		t.Fatalf("unexpected first event %v", changes[0].data)
	}
	if changes[1].data["from"] != "TODO" || changes[1].data["to"] != "BLOCKED" {
		t.Fatalf("unexpected second event %v", changes[1].data)
	}
}

func TestTaskCreate_DefaultPriorityApplied(t *testing.T) {
	store := newMemPlanStore()
	store.plans["p"] = newPlan("p", newStory("s1"))
	def := 3
	svc := NewTaskService(store, newMemSelection(), nil, CreationDefaults{Priority: &def})
	fixedClock(svc)

	task, err := svc.Create("p", "s1", "Defaulted", "", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Priority == nil || *task.Priority != 3 {
		t.Fatalf("priority = %v, want 3", task.Priority)
	}

	// An explicit priority wins over the configured default.
	explicit := 1
	task, err = svc.Create("p", "s1", "Explicit", "", &explicit, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Priority == nil || *task.Priority != 1 {
		t.Fatalf("priority = %v, want 1", task.Priority)
	}
}
