package capture

import (
	"runtime/debug"
	"sync"

	"github.com/warpdl/warpcap/pkg/logger"
)

// safeGo runs fn in a goroutine with panic recovery.
// If wg is non-nil, it's decremented on completion (normal or panic).
// If l is non-nil, panics are logged with stack traces.
// If onPanic is non-nil, it's called with the recovered value.
func safeGo(l logger.Logger, wg *sync.WaitGroup, context string, onPanic func(r interface{}), fn func()) {
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		defer recoverTo(l, context, onPanic)
		fn()
	}()
}

// safeCall runs fn on the calling goroutine and reports whether it panicked.
func safeCall(l logger.Logger, context string, fn func()) (panicked bool) {
	defer recoverTo(l, context, func(interface{}) { panicked = true })
	fn()
	return false
}

func recoverTo(l logger.Logger, context string, onPanic func(r interface{})) {
	r := recover()
	if r == nil {
		return
	}
	if l != nil {
		l.Error("PANIC [%s]: %v\n%s", context, r, debug.Stack())
	}
	if onPanic != nil {
		onPanic(r)
	}
}
