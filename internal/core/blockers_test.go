package core

import (
	"testing"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

func TestPropagateBlockers_MarksAndClears(t *testing.T) {
	dep := newTask("s1", "dep")
	task := newTask("s1", "a", "dep")
	plan := newPlan("p", newStory("s1", dep, task))

	changed := propagateBlockers(plan)
	if task.Status != models.StatusBlocked {
		t.Fatalf("status = %s, want BLOCKED", task.Status)
	}
	if len(changed) != 1 || changed[0] != "s1:a" {
		t.Fatalf("unexpected changed set: %v", changed)
	}

	dep.ApplyStatus(models.StatusDone, testTime)
	propagateBlockers(plan)
	if task.Status != models.StatusTODO {
		t.Fatalf("status = %s, want TODO after dependency completed", task.Status)
	}
}

func TestPropagateBlockers_LeavesActiveWorkAlone(t *testing.T) {
	dep := newTask("s1", "dep")
	task := newTask("s1", "a", "dep")
	task.Status = models.StatusInProgress
	plan := newPlan("p", newStory("s1", dep, task))

	// An admitted task is not retroactively interrupted by upstream state.
	if changed := propagateBlockers(plan); changed != nil {
		t.Fatalf("expected no changes, got %v", changed)
	}
	if task.Status != models.StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", task.Status)
	}
}

func TestPropagateBlockers_ChainFixpoint(t *testing.T) {
	// c depends on b depends on a. a is not DONE, so both b and c must end
	// up BLOCKED even though c's blocker is only visible after b flips.
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	c := newTask("s1", "c", "b")
	plan := newPlan("p", newStory("s1", a, b, c))

	propagateBlockers(plan)
	if b.Status != models.StatusBlocked || c.Status != models.StatusBlocked {
		t.Fatalf("chain not propagated: b=%s c=%s", b.Status, c.Status)
	}

	// Completing a unblocks b; c stays blocked on b.
	a.ApplyStatus(models.StatusDone, testTime)
	propagateBlockers(plan)
	if b.Status != models.StatusTODO {
		t.Fatalf("b = %s, want TODO", b.Status)
	}
	if c.Status != models.StatusBlocked {
		t.Fatalf("c = %s, want BLOCKED", c.Status)
	}
}

func TestPropagateBlockers_DeferredUntouched(t *testing.T) {
	dep := newTask("s1", "dep")
	task := newTask("s1", "a", "dep")
	task.Status = models.StatusDeferred
	plan := newPlan("p", newStory("s1", dep, task))

	propagateBlockers(plan)
	if task.Status != models.StatusDeferred {
		t.Fatalf("status = %s, want DEFERRED", task.Status)
	}
}

func TestReconcile_RollsUpAfterPropagation(t *testing.T) {
	a := newTask("s1", "a")
	b := newTask("s1", "b", "a")
	plan := newPlan("p", newStory("s1", a, b))

	reconcile(plan, testTime)

	// a TODO + b BLOCKED rolls up to TODO under the precedence rules.
	if got := plan.FindStory("s1").Status; got != models.StatusTODO {
		t.Fatalf("story status = %s, want TODO", got)
	}

	a.ApplyStatus(models.StatusDone, testTime)
	reconcile(plan, testTime)
	if got := plan.FindStory("s1").Status; got != models.StatusInProgress {
		t.Fatalf("story status = %s, want IN_PROGRESS", got)
	}
	if b.Status != models.StatusTODO {
		t.Fatalf("b = %s, want TODO", b.Status)
	}
}
