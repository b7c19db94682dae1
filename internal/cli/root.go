// Package cli implements the pman command tree. Service instances are
// package-level variables wired during app initialization.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "pman",
	Short: "Plan manager - workflow state for agent-driven development",
	Long: `pman manages a Plan -> Story -> Task hierarchy with an explicit task
lifecycle: tasks move TODO -> IN_PROGRESS -> PENDING_REVIEW -> DONE through
gated operations, dependencies are validated as a DAG, blocked work is
derived automatically, and story and plan statuses roll up from their
children.

State lives in YAML files under the workspace todo directory, and the same
services are exposed to AI assistants over MCP via "pman mcp serve".`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pman %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
