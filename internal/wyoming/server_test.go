package wyoming

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseURI(t *testing.T) {
	cases := map[string][2]string{
		"tcp://0.0.0.0:10500":        {"tcp", "0.0.0.0:10500"},
		"unix:///run/ledring.socket": {"unix", "/run/ledring.socket"},
		"unix://ledring.socket":      {"unix", "ledring.socket"},
	}
	for uri, want := range cases {
		network, addr, err := ParseURI(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, want, [2]string{network, addr})
	}
	for _, bad := range []string{"http://x:1", "tcp://", "unix://", "::"} {
		_, _, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

type recorder struct {
	mu      sync.Mutex
	clients []string
	events  []Event
}

func (r *recorder) factory(id string, w *Writer) Handler {
	r.mu.Lock()
	r.clients = append(r.clients, id)
	r.mu.Unlock()
	return HandlerFunc(func(ev Event) bool {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		if ev.Type == Describe {
			_ = w.Write(Event{Type: Info, Data: map[string]any{"name": "ledring"}})
		}
		return ev.Type != "bye"
	})
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func serve(t *testing.T, uri string) (*Server, *recorder, func()) {
	t.Helper()
	s := &Server{URI: uri}
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, rec.factory) }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, 5*time.Millisecond)
	return s, rec, func() {
		cancel()
		require.NoError(t, <-errc)
	}
}

func TestServerTCP(t *testing.T) {
	s, rec, stop := serve(t, "tcp://127.0.0.1:0")

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, WriteEvent(conn, Event{Type: Detection}))
	require.NoError(t, WriteEvent(conn, Event{Type: Describe}))
	reply, err := ReadEvent(bufio.NewReader(conn))
	require.NoError(t, err)
	assert.Equal(t, Info, reply.Type)
	assert.Equal(t, "ledring", reply.Data["name"])

	require.NoError(t, WriteEvent(conn, Event{Type: "bye"}))
	require.Eventually(t, func() bool { return rec.count() == 3 }, time.Second, 5*time.Millisecond)
	stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.clients, 1)
	assert.Len(t, rec.clients[0], 36)
	assert.Equal(t, Detection, rec.events[0].Type)
}

func TestServerUnixClosesClientsOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.sock")
	_, rec, stop := serve(t, "unix://"+path)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, WriteEvent(conn, Event{Type: Played}))
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	stop()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)

	_, err = net.Dial("unix", path)
	assert.Error(t, err)
}
