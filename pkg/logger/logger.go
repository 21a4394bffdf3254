// Package logger provides the leveled logging interface shared by every
// warpcap component. Backends write to a *log.Logger, discard, or record
// calls for tests.
package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// Logger defines the interface for leveled logging across warpcap.
type Logger interface {
	// Debug logs per-request detail (e.g., "dequeued request 3f2a priority=10").
	// Backends may drop it unless debug output is enabled.
	Debug(format string, args ...interface{})
	// Info logs an informational message (e.g., "scheduler started").
	Info(format string, args ...interface{})
	// Warning logs a recoverable problem (e.g., "capture failed: device busy").
	Warning(format string, args ...interface{})
	// Error logs a failure that needs attention (e.g., a panicking handler).
	Error(format string, args ...interface{})
	// Close releases resources held by the logger.
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger *log.Logger
	debug  atomic.Bool

	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
// Debug messages are dropped until SetDebug(true) is called.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// NewFileLogger creates a StandardLogger writing to w with the standard
// date/time flags. Close closes w.
func NewFileLogger(w io.WriteCloser) *StandardLogger {
	return &StandardLogger{logger: log.New(w, "", log.LstdFlags), closer: w}
}

// SetDebug toggles output of Debug messages.
func (s *StandardLogger) SetDebug(enabled bool) {
	s.debug.Store(enabled)
}

// Debug logs a message with [DEBUG] prefix when debug output is enabled.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if !s.debug.Load() {
		return
	}
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close closes the underlying writer of a file logger. It is a no-op for
// loggers built with NewStandardLogger.
func (s *StandardLogger) Close() error {
	if s.closer == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = s.closer.Close()
	})
	return s.closeErr
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for tests. It records every formatted
// message and is safe to use from the scheduler's worker goroutine while
// the test goroutine reads it.
type MockLogger struct {
	mu           sync.Mutex
	debugCalls   []string
	infoCalls    []string
	warningCalls []string
	errorCalls   []string
	closeCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(dst *[]string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	m.mu.Lock()
	*dst = append(*dst, msg)
	m.mu.Unlock()
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(&m.debugCalls, format, args...)
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.infoCalls, format, args...)
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.warningCalls, format, args...)
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.errorCalls, format, args...)
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.closeCalled = true
	m.mu.Unlock()
	return nil
}

func (m *MockLogger) snapshot(src []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// DebugCalls returns a copy of the recorded debug messages.
func (m *MockLogger) DebugCalls() []string { return m.snapshot(m.debugCalls) }

// InfoCalls returns a copy of the recorded info messages.
func (m *MockLogger) InfoCalls() []string { return m.snapshot(m.infoCalls) }

// WarningCalls returns a copy of the recorded warning messages.
func (m *MockLogger) WarningCalls() []string { return m.snapshot(m.warningCalls) }

// ErrorCalls returns a copy of the recorded error messages.
func (m *MockLogger) ErrorCalls() []string { return m.snapshot(m.errorCalls) }

// CloseCalled reports whether Close was called.
func (m *MockLogger) CloseCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalled
}

var _ Logger = (*MockLogger)(nil)
