// Package core contains the business logic for the plan manager: the task
// lifecycle state machine, dependency graph validation, blocker propagation,
// status rollup, and the plan/story/task services built on them.
package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// ConfigurationManager loads workspace configuration from the .planconfig
// file at the workspace root.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager reading
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		TodoDir:         "todo",
		DefaultPlanID:   "default",
		EventLogEnabled: true,
	}
}

// LoadGlobalConfig reads .planconfig from the base path. A missing file
// yields the defaults.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigFile(filepath.Join(cm.basePath, ".planconfig"))
	v.SetConfigType("yaml")
	v.SetDefault("todo_dir", cfg.TodoDir)
	v.SetDefault("default_plan_id", cfg.DefaultPlanID)
	v.SetDefault("event_log_enabled", cfg.EventLogEnabled)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .planconfig: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing .planconfig: %w", err)
	}
	if cfg.TodoDir == "" {
		cfg.TodoDir = "todo"
	}
	if cfg.DefaultPlanID == "" {
		cfg.DefaultPlanID = "default"
	}
	if err := validatePriority(cfg.DefaultPriority); err != nil {
		return nil, fmt.Errorf("invalid default_priority: %w", err)
	}
	return cfg, nil
}
