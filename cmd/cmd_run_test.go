package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/token-sale/core/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleTask struct{}

func (idleTask) Name() string { return "idle" }

func (idleTask) Run(context.Context) error { return nil }

func (idleTask) Shutdown(context.Context) error { return nil }

func TestRunWorkerAfterShutdown(t *testing.T) {
	t.Parallel()
	w := worker.New(idleTask{}, time.Hour)
	require.NoError(t, w.ShutdownWithTimeout(time.Second))
	assert.NoError(t, runWorker(context.Background(), w))
}

func TestRunWorkerUntilShutdown(t *testing.T) {
	t.Parallel()
	w := worker.New(idleTask{}, time.Hour)

	errCh := make(chan error, 1)
	go func() { errCh <- runWorker(context.Background(), w) }()
	require.NoError(t, w.ShutdownWithTimeout(time.Second))
	assert.NoError(t, <-errCh)
}
