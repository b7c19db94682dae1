package core

import (
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// Operation names exposed to callers in InvalidTransition errors.
const (
	opStartTask       = "start_task"
	opSubmitForReview = "submit_for_review"
	opApproveReview   = "approve_review"
	opRequestChanges  = "request_changes"
	opDeferTask       = "defer_task"
	opUndeferTask     = "undefer_task"
)

// allowedOperations lists the lifecycle operations legal from a status.
func allowedOperations(status models.Status) []string {
	switch status {
	case models.StatusTODO:
		return []string{opStartTask, opDeferTask}
	case models.StatusInProgress:
		return []string{opSubmitForReview}
	case models.StatusPendingReview:
		return []string{opApproveReview, opRequestChanges}
	case models.StatusDeferred:
		return []string{opUndeferTask}
	default:
		// DONE is terminal; BLOCKED clears automatically when its
		// dependencies complete.
		return nil
	}
}

// startTask is Gate 1: TODO -> IN_PROGRESS. The dependency gate walks the
// immediate depends_on list and reports every unmet dependency in one error.
// A BLOCKED task gets the unmet list too, since the blocker set is what the
// caller needs to act on.
func startTask(plan *models.Plan, task *models.Task, now time.Time) error {
	unmet := unmetDependencies(plan, task)
	switch task.Status {
	case models.StatusTODO:
		if len(unmet) > 0 {
			return dependencyUnmetError(task.ID, unmet)
		}
	case models.StatusBlocked:
		return dependencyUnmetError(task.ID, unmet)
	default:
		return invalidTransitionError(task.ID, opStartTask, task.Status)
	}

	if len(task.Steps) == 0 {
		// Fast-track: seed a placeholder so the task always has a plan.
		task.Steps = []models.Step{{Title: "Execute task: " + task.Title}}
	}
	task.ApplyStatus(models.StatusInProgress, now)
	return nil
}

// submitForReview moves IN_PROGRESS -> PENDING_REVIEW, storing the execution
// summary. The summary must be non-empty after sanitization.
func submitForReview(task *models.Task, summary string, now time.Time) error {
	if task.Status != models.StatusInProgress {
		return invalidTransitionError(task.ID, opSubmitForReview, task.Status)
	}
	clean, err := validateText("execution summary", summary, maxSummaryLength)
	if err != nil {
		return err
	}
	task.ExecutionSummary = clean
	task.ApplyStatus(models.StatusPendingReview, now)
	return nil
}

// approveReview is Gate 2: PENDING_REVIEW -> DONE. Sets completion_time and
// returns the structured changelog record for the transport layer to render.
func approveReview(task *models.Task, now time.Time) (models.ChangelogEntry, error) {
	if task.Status != models.StatusPendingReview {
		return models.ChangelogEntry{}, invalidTransitionError(task.ID, opApproveReview, task.Status)
	}
	task.ApplyStatus(models.StatusDone, now)
	return models.ChangelogEntry{
		TaskID:           task.ID,
		Title:            task.Title,
		ExecutionSummary: task.ExecutionSummary,
		ReworkCount:      task.ReworkCount,
	}, nil
}

// requestChanges moves PENDING_REVIEW -> IN_PROGRESS: appends the feedback
// record, increments rework_count, and clears the execution summary since it
// no longer describes current work.
func requestChanges(task *models.Task, feedback string, now time.Time) error {
	if task.Status != models.StatusPendingReview {
		return invalidTransitionError(task.ID, opRequestChanges, task.Status)
	}
	clean, err := validateText("review feedback", feedback, maxFeedbackLength)
	if err != nil {
		return err
	}
	task.ReviewFeedback = append(task.ReviewFeedback, models.FeedbackRecord{
		Message:   clean,
		Timestamp: now.UTC(),
	})
	task.ReworkCount++
	task.ExecutionSummary = ""
	task.ApplyStatus(models.StatusInProgress, now)
	return nil
}

// deferTask parks a TODO task in the DEFERRED side-state.
func deferTask(task *models.Task, now time.Time) error {
	if task.Status != models.StatusTODO {
		return invalidTransitionError(task.ID, opDeferTask, task.Status)
	}
	task.ApplyStatus(models.StatusDeferred, now)
	return nil
}

// undeferTask returns a DEFERRED task to TODO. Blocker propagation will move
// it straight to BLOCKED if its dependencies are unmet.
func undeferTask(task *models.Task, now time.Time) error {
	if task.Status != models.StatusDeferred {
		return invalidTransitionError(task.ID, opUndeferTask, task.Status)
	}
	task.ApplyStatus(models.StatusTODO, now)
	return nil
}
