package observability

import (
	"time"

	"github.com/google/uuid"
)

// Recorder adapts an EventLog to the fire-and-forget logging hook the core
// services expect. Write failures are swallowed: a broken activity log must
// never fail a plan mutation that already persisted.
type Recorder struct {
	log EventLog
	now func() time.Time
}

// NewRecorder wraps an event log for use by the core services.
func NewRecorder(log EventLog) *Recorder {
	return &Recorder{log: log, now: time.Now}
}

// LogEvent appends one INFO-level event to the activity log.
func (r *Recorder) LogEvent(planID, eventType, message string, data map[string]any) {
	if r == nil || r.log == nil {
		return
	}
	_ = r.log.Write(Event{
		ID:      uuid.NewString(),
		Time:    r.now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		PlanID:  planID,
		Message: message,
		Data:    data,
	})
}
