// Package capture schedules asynchronous capture operations by urgency.
//
// Requests are held in an unbounded priority queue ordered by priority
// (higher first) and then by submission sequence (earlier first). A single
// worker goroutine owned by the Scheduler pops one request at a time, runs
// the Operation on its own goroutine, waits for the outcome and calls
// exactly one of the request's completion callbacks. At most one capture
// is in flight at any moment.
//
//	s := capture.New(camera, capture.WithLogger(log))
//	s.Submit(capture.PriorityHigh,
//		func(p *capture.Payload) { save(p) },
//		func(err error) { log.Warning("capture failed: %v", err) },
//	)
//	_ = s.Start()
//	defer s.Close()
package capture
