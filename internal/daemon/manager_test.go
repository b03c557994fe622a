package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gardengod/gardengod/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testServerConfig(addr string) config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxHeaderBytes:  1 << 20,
	}
}

// testClient avoids keep-alive pool goroutines that would trip goleak.
var testClient = &http.Client{
	Transport: &http.Transport{DisableKeepAlives: true},
	Timeout:   2 * time.Second,
}

func okMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestNewManager_RequiresAPIHandler(t *testing.T) {
	_, err := NewManager(testServerConfig(":0"), Deps{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, ErrMissingAPIHandler)
}

func TestManager_StartServesAndStops(t *testing.T) {
	addr := freeAddr(t)
	m, err := NewManager(testServerConfig(addr), Deps{
		Logger:     zerolog.Nop(),
		APIHandler: okMux(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := testClient.Get(fmt.Sprintf("http://%s/ping", addr))
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("manager did not stop")
	}
}

func TestManager_ShutdownHooksLIFO(t *testing.T) {
	addr := freeAddr(t)
	m, err := NewManager(testServerConfig(addr), Deps{
		Logger:     zerolog.Nop(),
		APIHandler: okMux(),
	})
	require.NoError(t, err)

	var order []string
	m.RegisterShutdownHook("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.RegisterShutdownHook("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"second", "first"}, order)
}

func TestManager_HookErrorsReported(t *testing.T) {
	addr := freeAddr(t)
	m, err := NewManager(testServerConfig(addr), Deps{
		Logger:     zerolog.Nop(),
		APIHandler: okMux(),
	})
	require.NoError(t, err)

	m.RegisterShutdownHook("broken", func(context.Context) error {
		return errors.New("cleanup failed")
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup failed")
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m, err := NewManager(testServerConfig(":0"), Deps{
		Logger:     zerolog.Nop(),
		APIHandler: okMux(),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Shutdown(t.Context()), ErrManagerNotStarted)
}

func TestManager_MetricsServer(t *testing.T) {
	apiAddr := freeAddr(t)
	metricsAddr := freeAddr(t)

	var hits atomic.Int32
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	m, err := NewManager(testServerConfig(apiAddr), Deps{
		Logger:         zerolog.Nop(),
		APIHandler:     okMux(),
		MetricsAddr:    metricsAddr,
		MetricsHandler: metricsMux,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := testClient.Get(fmt.Sprintf("http://%s/metrics", metricsAddr))
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Positive(t, hits.Load())
}
