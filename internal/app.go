// Package internal provides the App struct that wires all components of the
// plan manager together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/valter-silva-au/plan-manager/internal/cli"
	"github.com/valter-silva-au/plan-manager/internal/core"
	"github.com/valter-silva-au/plan-manager/internal/observability"
	"github.com/valter-silva-au/plan-manager/internal/storage"
)

// App holds all service dependencies for the plan manager.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	PlanStore  storage.PlanStore
	StateStore storage.StateStore

	// Core services
	Plans   core.PlanService
	Stories core.StoryService
	Tasks   core.TaskService
	Reports core.ReportService

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
}

// NewApp creates and wires all components. basePath is the workspace root,
// typically the directory containing .planconfig.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	// --- Storage layer ---
	app.PlanStore = storage.NewPlanStore(basePath, globalCfg.TodoDir, globalCfg.DefaultPlanID)
	app.StateStore = storage.NewStateStore(basePath, globalCfg.TodoDir)

	// --- Observability ---
	var recorder core.EventLogger
	if globalCfg.EventLogEnabled {
		eventLogPath := filepath.Join(basePath, ".pman_events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without the activity log.
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		recorder = observability.NewRecorder(app.EventLog)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, observability.DefaultAlertThresholds())
	}

	// --- Core services ---
	defaults := core.CreationDefaults{Priority: globalCfg.DefaultPriority}
	app.Plans = core.NewPlanService(app.PlanStore, recorder, defaults)
	app.Stories = core.NewStoryService(app.PlanStore, app.StateStore, recorder, defaults)
	app.Tasks = core.NewTaskService(app.PlanStore, app.StateStore, recorder, defaults)
	app.Reports = core.NewReportService(app.PlanStore)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Plans = app.Plans
	cli.Stories = app.Stories
	cli.Tasks = app.Tasks
	cli.Reports = app.Reports
	cli.Selection = app.StateStore

	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.AlertEngine = app.AlertEngine

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the workspace root. It checks the PMAN_HOME env
// var, then walks up from the current directory looking for .planconfig, and
// falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("PMAN_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".planconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
