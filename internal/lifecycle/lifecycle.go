package lifecycle

import (
	"sync/atomic"
	"time"
)

// shutdownAt holds the Unix nanosecond time draining began, or 0 while serving.
var shutdownAt atomic.Int64

// SetShuttingDown marks the process as draining (SIGTERM/SIGINT) or serving again.
// Repeated true calls keep the first start time.
func SetShuttingDown(v bool) {
	if !v {
		shutdownAt.Store(0)
		return
	}
	shutdownAt.CompareAndSwap(0, time.Now().UnixNano())
}

// IsShuttingDown reports whether the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shutdownAt.Load() != 0
}

// ShuttingDownSince returns when draining began.
func ShuttingDownSince() (time.Time, bool) {
	ns := shutdownAt.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}
