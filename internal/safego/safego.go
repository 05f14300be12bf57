// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import (
	"runtime/debug"

	"lumonew/internal/logger"
)

// Go launches fn in a new goroutine. A panic in fn is recovered and logged
// with its stack; name identifies the task in the log entry.
func Go(name string, fn func()) {
	go Run(name, fn)
}

// Run calls fn on the current goroutine with the same recovery as Go.
func Run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("recovered panic in background goroutine",
				"task", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
