package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// The core returns structured changelog records from approve_review; the
// functions here render them into text for the CLI and MCP layers.

var changelogCategories = []string{
	"Added", "Changed", "Deprecated", "Removed", "Fixed", "Security",
}

var commitTypes = []string{
	"feat", "fix", "docs", "style", "refactor", "perf", "test", "build", "ci", "chore",
}

// RenderChangelog formats a changelog entry in keepachangelog.com format.
// version is optional; date defaults to today (UTC) when version is given.
func RenderChangelog(entry models.ChangelogEntry, category, version, date string) (string, error) {
	if !containsString(changelogCategories, category) {
		return "", validationError("invalid category %q: must be one of %s",
			category, strings.Join(changelogCategories, ", "))
	}

	var b strings.Builder
	if version != "" {
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		fmt.Fprintf(&b, "## [%s] - %s\n\n", version, date)
	}
	fmt.Fprintf(&b, "### %s\n\n", category)

	line := entry.ExecutionSummary
	if line == "" {
		line = entry.Title
	}
	fmt.Fprintf(&b, "- %s (%s)", line, entry.TaskID)
	if entry.ReworkCount > 0 {
		fmt.Fprintf(&b, " [%d rework cycle(s)]", entry.ReworkCount)
	}
	b.WriteString("\n")
	return b.String(), nil
}

// RenderCommitMessage formats a conventional commit message for a completed
// task: "type(local_id): title", the execution summary as the body, and a
// story reference footer.
func RenderCommitMessage(entry models.ChangelogEntry, commitType string) (string, error) {
	if !containsString(commitTypes, commitType) {
		return "", validationError("invalid commit type %q: must be one of %s",
			commitType, strings.Join(commitTypes, ", "))
	}

	storyID, localID := models.SplitTaskID(entry.TaskID)

	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s): %s\n", commitType, localID, entry.Title)
	if entry.ExecutionSummary != "" {
		fmt.Fprintf(&b, "\n%s\n", entry.ExecutionSummary)
	}
	if storyID != "" {
		fmt.Fprintf(&b, "\nRefs: %s\n", storyID)
	}
	return b.String(), nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
