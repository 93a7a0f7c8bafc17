//go:build unix

package term

import (
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopOnSignal(t *testing.T) {
	var got atomic.Value
	cancel := StopOnSignal(func(sig os.Signal) { got.Store(sig) }, syscall.SIGUSR1)
	defer cancel()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	require.Eventually(t, func() bool { return got.Load() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, syscall.SIGUSR1, got.Load())

	cancel()
	cancel()
}
