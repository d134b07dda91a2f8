package jobdispatch

import "time"

type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event is one audit record for an admin sync invocation.
type Event struct {
	DispatchID   string
	JobName      string
	JobPath      string
	Season       int
	Status       Status
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
