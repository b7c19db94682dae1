package core

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashRuns     = regexp.MustCompile(`-{2,}`)
)

// generateSlug derives a stable identifier from a human title: lowercase,
// alphanumerics only, words joined by single dashes.
func generateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "item"
	}
	return slug
}

// ensureUniqueID appends -2, -3, ... to baseID until it is absent from the
// given set of existing ids in the relevant scope.
func ensureUniqueID(baseID string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		taken[id] = struct{}{}
	}
	if _, ok := taken[baseID]; !ok {
		return baseID
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", baseID, counter)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
