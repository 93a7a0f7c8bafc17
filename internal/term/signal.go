package term

import (
	"os"
	"os/signal"
	"sync"
)

// StopOnSignal calls stop on the first of sigs and then hands the signals
// back to the default handler, so a second one terminates the process. The
// returned function detaches the watcher; it may be called more than once.
func StopOnSignal(stop func(os.Signal), sigs ...os.Signal) (cancel func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sigs...)
	done := make(chan struct{})
	release := func() { signal.Stop(c) }
	go watchSignal(c, done, stop, release)

	var once sync.Once
	return func() {
		once.Do(func() {
			release()
			close(done)
		})
	}
}

func watchSignal(c <-chan os.Signal, done <-chan struct{}, stop func(os.Signal), release func()) {
	select {
	case sig := <-c:
		release()
		stop(sig)
	case <-done:
	}
}
