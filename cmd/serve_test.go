package cmd

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korjavin/gkentei/api"
	"github.com/korjavin/gkentei/bot"
	"github.com/korjavin/gkentei/cache"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func newIdleServer(t *testing.T) *api.Server {
	t.Helper()
	c := cache.New[[]byte](nil)
	t.Cleanup(c.Close)
	return api.New(nil, c, api.Options{})
}

func TestRunServicesBotFailureStartsNothing(t *testing.T) {
	addr := freeAddr(t)
	boom := errors.New("bad token")

	err := runServices(context.Background(), newIdleServer(t), addr, func() (*bot.Bot, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// give a stray server goroutine the chance to bind
	time.Sleep(50 * time.Millisecond)
	l, err := net.Listen("tcp", addr)
	require.NoError(t, err, "HTTP server must not be listening")
	require.NoError(t, l.Close())
}

func TestRunServicesStopsOnCancel(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runServices(ctx, newIdleServer(t), addr, nil) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServices did not return after cancel")
	}
}
