package core

import (
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// Rollup derives a parent's status purely from its children's statuses. It
// is a pure function of the multiset of child statuses: ordering does not
// matter and repeated calls with the same children give the same result.
//
// Precedence, earlier rule wins:
//  1. no children            -> TODO
//  2. all DONE               -> DONE
//  3. any active             -> IN_PROGRESS
//  4. any DONE               -> IN_PROGRESS (started but stalled is surfaced)
//  5. all BLOCKED            -> BLOCKED
//  6. all DEFERRED           -> DEFERRED
//  7. otherwise              -> TODO
func Rollup(children []models.Status) models.Status {
	if len(children) == 0 {
		return models.StatusTODO
	}

	var done, active, blocked, deferred int
	for _, s := range children {
		switch {
		case s == models.StatusDone:
			done++
		case s.Active():
			active++
		case s == models.StatusBlocked:
			blocked++
		case s == models.StatusDeferred:
			deferred++
		}
	}

	switch {
	case done == len(children):
		return models.StatusDone
	case active > 0:
		return models.StatusInProgress
	case done > 0:
		return models.StatusInProgress
	case blocked == len(children):
		return models.StatusBlocked
	case deferred == len(children):
		return models.StatusDeferred
	default:
		return models.StatusTODO
	}
}

// rollupPlan recomputes every story's status from its tasks and then the
// plan's status from its stories. Rollup status is derived on every
// mutation, never stored as independently-settable truth.
func rollupPlan(plan *models.Plan, now time.Time) {
	for _, story := range plan.Stories {
		next := Rollup(story.TaskStatuses())
		if story.Status != next {
			story.ApplyStatus(next, now)
		}
	}
	next := Rollup(plan.StoryStatuses())
	if plan.Status != next {
		plan.ApplyStatus(next, now)
	}
}
