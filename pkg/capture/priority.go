package capture

import (
	"fmt"
	"strconv"
	"strings"
)

// Priority is the urgency of a capture request. Higher values are served first.
// Any int is a valid priority; the named levels are conveniences.
type Priority int

const (
	// PriorityLow is for background captures.
	PriorityLow Priority = 1
	// PriorityNormal is the default priority.
	PriorityNormal Priority = 5
	// PriorityHigh is for captures a user is waiting on.
	PriorityHigh Priority = 10
	// PriorityUrgent preempts every other queued capture.
	PriorityUrgent Priority = 20
)

var priorityNames = map[string]Priority{
	"low":    PriorityLow,
	"normal": PriorityNormal,
	"high":   PriorityHigh,
	"urgent": PriorityUrgent,
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return strconv.Itoa(int(p))
	}
}

// ParsePriority accepts a level name ("low", "normal", "high", "urgent")
// or an integer.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if p, ok := priorityNames[s]; ok {
		return p, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid priority %q: want low, normal, high, urgent or an integer", s)
	}
	return Priority(n), nil
}
