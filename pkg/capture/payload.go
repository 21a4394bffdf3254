package capture

import (
	"time"

	"github.com/google/uuid"
)

// Payload is the immutable result of a successful capture.
type Payload struct {
	// ID uniquely identifies the payload.
	ID string
	// Device names the source that produced the payload.
	Device string
	// Seq is the device's monotonic frame counter.
	Seq uint64
	// CapturedAt is when the device finished the capture.
	CapturedAt time.Time
	// Width and Height are the frame dimensions in pixels, zero when unknown.
	Width  int
	Height int
	// Data holds the captured bytes. Treat as read-only.
	Data []byte
}

// NewPayload builds a payload stamped with a fresh ID and the current time.
func NewPayload(device string, seq uint64, data []byte) *Payload {
	return &Payload{
		ID:         uuid.NewString(),
		Device:     device,
		Seq:        seq,
		CapturedAt: time.Now(),
		Data:       data,
	}
}

// Size returns the number of captured bytes.
func (p *Payload) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}
