package core

import (
	"strings"

	"github.com/valter-silva-au/plan-manager/pkg/models"
)

// Input length limits. Oversized text is rejected rather than truncated.
const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxSummaryLength     = 2000
	maxFeedbackLength    = 2000
	maxSteps             = 50
	maxStepTitleLength   = 200
	maxStepDescLength    = 1000
)

// safeText rejects control characters other than newline and tab.
func safeText(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if r < 0x20 || r == 0x7F {
			return false
		}
	}
	return true
}

// validateTitle sanitizes a title. Colons are rejected because ':' separates
// story and task ids in fully-qualified form.
func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", validationError("title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return "", validationError("title too long (max %d characters)", maxTitleLength)
	}
	if strings.Contains(title, ":") {
		return "", validationError("title cannot contain ':' (reserved as id separator)")
	}
	if !safeText(title) {
		return "", validationError("title contains invalid characters")
	}
	return title, nil
}

// validateDescription sanitizes an optional description.
func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if len(description) > maxDescriptionLength {
		return "", validationError("description too long (max %d characters)", maxDescriptionLength)
	}
	if !safeText(description) {
		return "", validationError("description contains invalid characters")
	}
	return description, nil
}

// validateText sanitizes required free text such as execution summaries and
// review feedback.
func validateText(what, text string, maxLen int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validationError("%s cannot be empty", what)
	}
	if len(text) > maxLen {
		return "", validationError("%s too long (max %d characters)", what, maxLen)
	}
	if !safeText(text) {
		return "", validationError("%s contains invalid characters", what)
	}
	return text, nil
}

// validatePriority checks the 0-5 range. Nil means unset and is allowed.
func validatePriority(priority *int) error {
	if priority == nil {
		return nil
	}
	if *priority < 0 || *priority > 5 {
		return validationError("priority must be between 0 and 5 (inclusive)")
	}
	return nil
}

// validateSteps sanitizes a steps list for wholesale replacement.
func validateSteps(steps []models.Step) ([]models.Step, error) {
	if len(steps) > maxSteps {
		return nil, validationError("too many steps (max %d)", maxSteps)
	}
	out := make([]models.Step, 0, len(steps))
	for i, step := range steps {
		title := strings.TrimSpace(step.Title)
		if title == "" {
			return nil, validationError("step %d title cannot be empty", i+1)
		}
		if len(title) > maxStepTitleLength {
			return nil, validationError("step %d title too long (max %d characters)", i+1, maxStepTitleLength)
		}
		if !safeText(title) {
			return nil, validationError("step %d title contains invalid characters", i+1)
		}
		desc := strings.TrimSpace(step.Description)
		if len(desc) > maxStepDescLength {
			return nil, validationError("step %d description too long (max %d characters)", i+1, maxStepDescLength)
		}
		if !safeText(desc) {
			return nil, validationError("step %d description contains invalid characters", i+1)
		}
		out = append(out, models.Step{Title: title, Description: desc})
	}
	return out, nil
}

// validateDependsOn enforces uniqueness and non-empty entries. Reference
// resolution happens separately against the plan graph.
func validateDependsOn(deps []string) ([]string, error) {
	seen := make(map[string]struct{}, len(deps))
	out := make([]string, 0, len(deps))
	for _, dep := range deps {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			return nil, validationError("dependency ids cannot be empty")
		}
		if _, dup := seen[dep]; dup {
			return nil, validationError("duplicate dependency %q", dep)
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out, nil
}
