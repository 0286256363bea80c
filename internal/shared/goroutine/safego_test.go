package goroutine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/keygate-inc/keygate/internal/shared/logger"
)

func TestRun_ClosesDoneAfterPanic(t *testing.T) {
	done := Run(logger.NewNopLogger(), "boom", func() {
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done channel not closed after panic")
	}
}

func TestRun_RunsFunction(t *testing.T) {
	ran := false
	<-Run(logger.NewNopLogger(), "work", func() { ran = true })
	assert.True(t, ran)
}
