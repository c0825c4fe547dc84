package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	diag "github.com/coreman2200/wyoming-ledring/internal/diagnostics"
	"github.com/coreman2200/wyoming-ledring/internal/led"
	"github.com/coreman2200/wyoming-ledring/internal/wyoming"
)

func newHub(t *testing.T, n int) (*Hub, *led.Sim, *httptest.Server) {
	t.Helper()
	sim := led.NewSim(n)
	strip, err := led.NewStrip(sim, n, led.StripOptions{Brightness: 1})
	require.NoError(t, err)
	h := NewHub(strip)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(func() {
		_ = h.Close()
		srv.Close()
	})
	return h, sim, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func clients(h *Hub, m map[*websocket.Conn]bool) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(m)
}

func TestFrameBroadcast(t *testing.T) {
	h, sim, srv := newHub(t, 2)
	conn := dial(t, srv, "/ws")
	require.Eventually(t, func() bool { return clients(h, h.clients) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Set(0, color.RGB{R: 1, G: 2, B: 3}))
	require.NoError(t, h.Set(1, color.RGB{B: 9}))
	require.NoError(t, h.Flush())
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 9}, sim.Last)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []int  `json:"rgb"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, uint64(1), msg.FrameID)
	assert.Equal(t, []int{1, 2, 3, 0, 0, 9}, msg.RGB)
	assert.NotZero(t, msg.T)
}

func TestSetRejectedByInnerSink(t *testing.T) {
	h, _, _ := newHub(t, 2)
	assert.ErrorIs(t, h.Set(2, color.RGB{R: 1}), led.ErrIndexRange)
}

func TestDiagnosticsBacklogAndPush(t *testing.T) {
	h, _, srv := newHub(t, 1)
	h.Report(diag.Diagnostic{Severity: diag.Warn, Code: diag.EffectStopTimeout, Summary: "slow"})

	conn := dial(t, srv, "/diag")
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var d diag.Diagnostic
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, diag.EffectStopTimeout, d.Code)
	assert.False(t, d.At.IsZero())

	require.Eventually(t, func() bool { return clients(h, h.diagClients) == 1 }, time.Second, 5*time.Millisecond)
	h.Report(diag.Diagnostic{Severity: diag.Err, Code: diag.SinkWrite, Summary: "gone"})
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, diag.SinkWrite, d.Code)
}

func TestHealth(t *testing.T) {
	h, _, srv := newHub(t, 12)
	h.SetActive(func() string { return "think" })
	require.NoError(t, h.Flush())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1.0, body["frame_id"])
	assert.Equal(t, 12.0, body["count"])
	assert.Equal(t, "think", body["active"])
}

func TestControl(t *testing.T) {
	h, _, srv := newHub(t, 1)
	resp, err := http.Post(srv.URL+"/control", "application/json", strings.NewReader(`{"event":"detection"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	got := make(chan wyoming.Event, 1)
	h.SetControl(wyoming.HandlerFunc(func(ev wyoming.Event) bool {
		got <- ev
		return true
	}))
	resp, err = http.Post(srv.URL+"/control", "application/json", strings.NewReader(`{"event":"detection","data":{"name":"hey"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	ev := <-got
	assert.Equal(t, wyoming.Detection, ev.Type)
	assert.Equal(t, "hey", ev.Data["name"])

	resp, err = http.Post(srv.URL+"/control", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
