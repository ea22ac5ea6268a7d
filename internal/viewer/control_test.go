package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhandras/termroom/internal/protocol/wire"
	"github.com/bhandras/termroom/internal/remote"
)

func TestSocketControl(t *testing.T) {
	conn := newFakeConn()
	ctl := SocketControl{Conn: conn, Dialect: wire.TerminalDialect}

	require.NoError(t, ctl.Start(context.Background(), "t1", wire.Target{Hostname: "h", Username: "u", Password: "p"}))
	require.NoError(t, ctl.Stop(context.Background(), "t1"))

	require.Equal(t, [][]any{{"t1", "h", "u", "p"}}, conn.emitted("start_runner"))
	require.Equal(t, [][]any{{"t1"}}, conn.emitted("stop_runner"))
}

func TestLegacyControl(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rc, err := remote.New(remote.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	ctl := LegacyControl{Client: rc}

	require.NoError(t, ctl.Start(context.Background(), "ignored", wire.Target{}))
	require.NoError(t, ctl.Stop(context.Background(), "ignored"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"/runner/start", "/runner/stop"}, paths)
}
