package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/memory"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/app/permission"
	"github.com/YelzhanWeb/restaurant/internal/config"
)

func memoryInfra(t *testing.T) *infra {
	t.Helper()
	cfg := config.Default()
	cfg.Sweeper.Enabled = true
	cfg.Sweeper.Interval = 10 * time.Millisecond
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Notifications.Workers = 1

	store := memory.NewStore()
	in := &infra{
		cfg:      cfg,
		log:      logger.Discard(),
		metrics:  metrics.New(),
		orders:   store.Orders(),
		permRepo: store.Permissions(),
		reviews:  store.Reviews(),
	}
	in.permissions = permission.NewService(in.permRepo, permission.NewMemoryCache(nil), time.Minute, in.log, in.metrics)
	t.Cleanup(in.Close)
	return in
}

func waitFor(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("runServer did not return")
		return nil
	}
}

func TestRunServer_ReturnsListenErrorOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	in := memoryInfra(t)
	in.cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	done := make(chan error, 1)
	go func() { done <- runServer(context.Background(), in) }()

	assert.Error(t, waitFor(t, done))
}

func TestRunServer_StopsOnCancel(t *testing.T) {
	in := memoryInfra(t)
	in.cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, in) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.NoError(t, waitFor(t, done))
}
