package core

import (
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// Blocker propagation keeps the BLOCKED/TODO split of dependent tasks
// consistent with the completion state of their dependencies. It only ever
// touches tasks in TODO or BLOCKED: once a gate admits a task to
// IN_PROGRESS, upstream changes do not retroactively interrupt it.

// propagateBlockers re-evaluates every TODO/BLOCKED task against its
// immediate dependencies and flips its side-state as needed. Each pass is
// single-hop; passes repeat until a fixpoint so multi-hop chains resolve
// (completing A unblocks B, which is itself a status change that re-triggers
// evaluation of anything depending on B). Returns the ids of tasks whose
// status changed.
func propagateBlockers(plan *models.Plan) []string {
	var changed []string
	for {
		idx := indexPlan(plan)
		dirty := false
		for _, story := range plan.Stories {
			for _, task := range story.Tasks {
				if task.Status != models.StatusTODO && task.Status != models.StatusBlocked {
					continue
				}
				unblocked := true
				for _, dep := range task.DependsOn {
					if !dependencyDone(idx, task.StoryID, dep) {
						unblocked = false
						break
					}
				}
				switch {
				case task.Status == models.StatusTODO && !unblocked:
					task.Status = models.StatusBlocked
					changed = append(changed, task.ID)
					dirty = true
				case task.Status == models.StatusBlocked && unblocked:
					task.Status = models.StatusTODO
					changed = append(changed, task.ID)
					dirty = true
				}
			}
		}
		if !dirty {
			return changed
		}
	}
}

// reconcile runs blocker propagation and then the status rollup for every
// story and the plan. Every mutating operation calls this exactly once
// before the plan is validated and saved, so the persisted graph always
// satisfies the no-orphaned-BLOCKED and derived-rollup invariants.
func reconcile(plan *models.Plan, now time.Time) []string {
	changed := propagateBlockers(plan)
	rollupPlan(plan, now)
	return changed
}

// logPropagatedChanges emits a task.status_changed event for every task
// flipped TODO<->BLOCKED by propagation during a mutation, so the event log
// carries the same transitions the persisted graph does. Propagation only
// moves tasks between those two states, so the prior status is always the
// opposite of the current one.
func logPropagatedChanges(events EventLogger, planID string, plan *models.Plan, changed []string) {
	if events == nil {
		return
	}
	for _, id := range changed {
		_, task := plan.FindTask(id)
		if task == nil {
			// Flipped and then deleted within the same mutation.
			continue
		}
		from := models.StatusBlocked
		if task.Status == models.StatusBlocked {
			from = models.StatusTODO
		}
		events.LogEvent(planID, "task.status_changed", "task "+task.ID+" moved to "+string(task.Status), map[string]any{
			"task_id": task.ID,
			"from":    string(from),
			"to":      string(task.Status),
		})
	}
}
