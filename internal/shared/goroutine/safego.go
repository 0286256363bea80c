// Package goroutine launches background work that must not take the process down.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// SafeGo runs fn on its own goroutine. A panic is logged with its stack and swallowed.
func SafeGo(log logger.Interface, name string, fn func()) {
	_ = Run(log, name, fn)
}

// Run is SafeGo that also reports completion. The returned channel is closed once fn
// has returned or panicked.
func Run(log logger.Interface, name string, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer recoverPanic(log, name)
		fn()
	}()
	return done
}

func recoverPanic(log logger.Interface, name string) {
	r := recover()
	if r == nil {
		return
	}
	log.Errorw("goroutine panicked",
		"goroutine", name,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
}
