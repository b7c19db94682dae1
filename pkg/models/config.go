package models

// GlobalConfig holds workspace-level settings read from .planconfig.
type GlobalConfig struct {
	// TodoDir is the directory under the workspace root holding plan data.
	TodoDir string `yaml:"todo_dir" mapstructure:"todo_dir"`

	// DefaultPlanID is the plan seeded into a fresh plans index.
	DefaultPlanID string `yaml:"default_plan_id" mapstructure:"default_plan_id"`

	// DefaultPriority is applied to new items created without an explicit
	// priority. Nil means items start with no priority.
	DefaultPriority *int `yaml:"default_priority,omitempty" mapstructure:"default_priority"`

	// EventLogEnabled controls whether domain mutations are appended to the
	// JSONL event log.
	EventLogEnabled bool `yaml:"event_log_enabled" mapstructure:"event_log_enabled"`
}
