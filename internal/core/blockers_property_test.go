package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// genChainPlan builds a single-story plan with n tasks where each task may
// depend on any subset of earlier tasks (so the graph is always acyclic) and
// each task starts in a random resting status.
func genChainPlan(rt *rapid.T) *models.Plan {
	n := rapid.IntRange(1, 12).Draw(rt, "n")
	resting := []models.Status{models.StatusTODO, models.StatusBlocked, models.StatusDone, models.StatusDeferred}

	story := newStory("s1")
	for i := 0; i < n; i++ {
		local := fmt.Sprintf("t%d", i)
		var deps []string
		for j := 0; j < i; j++ {
			if rapid.Bool().Draw(rt, fmt.Sprintf("dep_%d_%d", i, j)) {
				deps = append(deps, fmt.Sprintf("t%d", j))
			}
		}
		task := newTask("s1", local, deps...)
		task.Status = rapid.SampledFrom(resting).Draw(rt, fmt.Sprintf("status_%d", i))
		if task.Status == models.StatusDone {
			ct := testTime
			task.CompletionTime = &ct
		}
		story.Tasks = append(story.Tasks, task)
	}
	return newPlan("p", story)
}

// After propagation, the TODO/BLOCKED split exactly mirrors dependency
// completion: no TODO task has an unmet dependency and no BLOCKED task has
// all dependencies DONE.
func TestPropagateBlockers_Fixpoint(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		plan := genChainPlan(rt)
		propagateBlockers(plan)

		for _, task := range plan.AllTasks() {
			unmet := unmetDependencies(plan, task)
			switch task.Status {
			case models.StatusTODO:
				if len(unmet) > 0 {
					rt.Fatalf("TODO task %s has unmet deps %v", task.ID, unmet)
				}
			case models.StatusBlocked:
				if len(unmet) == 0 {
					rt.Fatalf("BLOCKED task %s has no unmet deps", task.ID)
				}
			}
		}
	})
}

// Propagation is idempotent: a second pass changes nothing.
func TestPropagateBlockers_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		plan := genChainPlan(rt)
		propagateBlockers(plan)
		if changed := propagateBlockers(plan); changed != nil {
			rt.Fatalf("second pass changed %v", changed)
		}
	})
}
