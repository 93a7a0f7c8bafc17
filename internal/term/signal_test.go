package term

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchSignal_ReleasesBeforeStopping(t *testing.T) {
	c := make(chan os.Signal, 2)
	var order []string
	finished := make(chan struct{})
	go func() {
		watchSignal(c, make(chan struct{}),
			func(sig os.Signal) { order = append(order, "stop "+sig.String()) },
			func() { order = append(order, "release") })
		close(finished)
	}()

	c <- os.Interrupt
	c <- os.Interrupt
	<-finished
	assert.Equal(t, []string{"release", "stop interrupt"}, order, "handled once, default handler restored first")
	assert.Len(t, c, 1, "second signal is left for the default handler")
}

func TestWatchSignal_Cancel(t *testing.T) {
	done := make(chan struct{})
	close(done)
	var stopped, released bool
	watchSignal(make(chan os.Signal), done,
		func(os.Signal) { stopped = true },
		func() { released = true })
	assert.False(t, stopped)
	assert.False(t, released)
}
