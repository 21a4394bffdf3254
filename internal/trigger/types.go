package trigger

import (
	"time"

	"github.com/warpdl/warpcap/pkg/capture"
)

// Event is a pending capture trigger.
type Event struct {
	// Name identifies the event for Remove and in logs.
	Name string
	// TriggerAt is the wall-clock time the capture should be submitted.
	TriggerAt time.Time
	// CronExpr re-arms the event after it fires. Empty means one-shot.
	CronExpr string
	// Priority is passed to the capture scheduler.
	Priority capture.Priority
}
