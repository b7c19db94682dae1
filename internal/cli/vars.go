package cli

import (
	"github.com/valter-silva-au/plan-manager/internal/core"
	"github.com/valter-silva-au/plan-manager/internal/observability"
)

// Service instances, set during app initialization in internal/app.go.
var (
	BasePath string

	Plans     core.PlanService
	Stories   core.StoryService
	Tasks     core.TaskService
	Reports   core.ReportService
	Selection core.SelectionStore

	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
)
