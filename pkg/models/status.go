package models

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a work item.
//
// Tasks move through TODO -> IN_PROGRESS -> PENDING_REVIEW -> DONE under the
// two approval gates. BLOCKED and DEFERRED are side-states reachable from and
// back to TODO only. Story and Plan statuses are always derived from their
// children and never set directly.
type Status string

const (
	StatusTODO          Status = "TODO"
	StatusInProgress    Status = "IN_PROGRESS"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusDone          Status = "DONE"
	StatusBlocked       Status = "BLOCKED"
	StatusDeferred      Status = "DEFERRED"
)

// AllStatuses lists every valid status in lifecycle order.
var AllStatuses = []Status{
	StatusTODO,
	StatusInProgress,
	StatusPendingReview,
	StatusDone,
	StatusBlocked,
	StatusDeferred,
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTODO, StatusInProgress, StatusPendingReview, StatusDone, StatusBlocked, StatusDeferred:
		return true
	}
	return false
}

// Active reports whether the status represents work actively happening.
// PENDING_REVIEW counts as active: rollup does not expose the review
// sub-state to ancestors.
func (s Status) Active() bool {
	return s == StatusInProgress || s == StatusPendingReview
}

// ParseStatus normalizes a free-form status string from the transport
// boundary into the canonical enum. The core only ever accepts the result.
func ParseStatus(value string) (Status, error) {
	token := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !token.Valid() {
		return "", fmt.Errorf("invalid status %q: allowed values are %s", value, statusList())
	}
	return token, nil
}

// ParseStatusCSV parses a comma-separated list of statuses. An empty input
// yields nil, meaning "no status filter".
func ParseStatusCSV(csv string) ([]Status, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var out []Status
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func statusList() string {
	parts := make([]string, len(AllStatuses))
	for i, s := range AllStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
