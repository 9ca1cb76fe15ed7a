package main

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_WaitsForShutdown(t *testing.T) {
	signals := make(chan os.Signal, 1)
	stopped := make(chan struct{})
	var flushed atomic.Bool

	start := func() error {
		signals <- syscall.SIGTERM
		<-stopped
		return nil
	}
	shutdown := func(context.Context) error {
		close(stopped)
		// the listener has returned by now; the flush must still complete
		time.Sleep(50 * time.Millisecond)
		flushed.Store(true)
		return nil
	}

	require.NoError(t, serve(start, shutdown, signals))
	assert.True(t, flushed.Load(), "serve returned before shutdown finished")
}

func TestServe_StartError(t *testing.T) {
	boom := errors.New("address already in use")
	err := serve(func() error { return boom }, func(context.Context) error { return nil }, make(chan os.Signal))
	assert.ErrorIs(t, err, boom)
}
