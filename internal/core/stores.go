package core

import "github.com/valter-silva-au/plan-manager/pkg/models"

// PlanStore is the persistence collaborator for the plan graph. The core
// holds no state across operations: every mutation loads the graph, applies
// one unit of work, and saves it back atomically. Defining the interface
// here keeps core independent of the storage package.
type PlanStore interface {
	LoadPlan(planID string) (*models.Plan, error)
	SavePlan(plan *models.Plan) error
	DeletePlan(planID string) error
	ListPlans() ([]models.PlanSummary, error)
	CurrentPlanID() (string, error)
	SetCurrentPlanID(planID string) error
}

// SelectionStore holds the per-plan "current story/task" convenience
// pointers used by the CLI and MCP layers. The core state machine never
// depends on it; services only clear selections that point at items they
// completed or deleted.
type SelectionStore interface {
	CurrentStoryID(planID string) (string, error)
	SetCurrentStoryID(planID, storyID string) error
	CurrentTaskID(planID string) (string, error)
	SetCurrentTaskID(planID, taskID string) error
}

// EventLogger is the subset of the observability event log the services
// need. A nil logger disables event capture.
type EventLogger interface {
	LogEvent(planID, eventType, message string, data map[string]any)
}

// CreationDefaults carries configured fallbacks applied when a create
// request omits optional fields. The zero value applies nothing.
type CreationDefaults struct {
	// Priority is assigned to new plans, stories, and tasks created without
	// an explicit priority. Nil leaves the priority unset.
	Priority *int
}
