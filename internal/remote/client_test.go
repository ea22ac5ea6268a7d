package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bhandras/termroom/internal/protocol/wire"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func newTestClient(t *testing.T, h http.HandlerFunc, dialect wire.Dialect) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", Dialect: dialect, Token: "tok"})
	require.NoError(t, err)
	return c
}

func TestActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "true", body: "true", want: true},
		{name: "false", body: "false\n", want: false},
		{name: "number", body: "1", want: true},
		{name: "string", body: `"false"`, want: false},
		{name: "object", body: `{"active": true}`, want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{}
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				rec.add(r.URL.Path + " " + r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(tt.body))
			}, wire.SessionDialect)

			active, err := c.Active(context.Background(), "abc")
			require.NoError(t, err)
			require.Equal(t, tt.want, active)
			require.Equal(t, []string{"/session/abc/active Bearer tok"}, rec.all())
		})
	}
}

func TestActive_TerminalDialect(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		_, _ = w.Write([]byte("true"))
	}, wire.TerminalDialect)

	_, err := c.Active(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, []string{"/runner/7/active"}, rec.all())
}

func TestActive_Errors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}, wire.SessionDialect)
	_, err := c.Active(context.Background(), "abc")
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("maybe"))
	}, wire.SessionDialect)
	_, err = c.Active(context.Background(), "abc")
	require.Error(t, err)
}

func TestActive_ContextCanceled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, wire.SessionDialect)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Active(ctx, "abc")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLegacyControl(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Path)
		_, _ = w.Write([]byte("<html>ignored</html>"))
	}, wire.TerminalDialect)

	require.NoError(t, c.StartRunner(context.Background()))
	require.NoError(t, c.StopRunner(context.Background()))
	require.Equal(t, []string{"/runner/start", "/runner/stop"}, rec.all())
}

func TestNew_Validates(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{BaseURL: "ftp://host"})
	require.Error(t, err)

	c, err := New(Config{BaseURL: "http://host:5000/api/?x=1"})
	require.NoError(t, err)
	require.Equal(t, "http://host:5000/api/session/a%2Fb/active", c.URL(c.dialect.ActivePath("a/b")))
}
