package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/wyoming-ledring/internal/color"
	diag "github.com/coreman2200/wyoming-ledring/internal/diagnostics"
	"github.com/coreman2200/wyoming-ledring/internal/led"
	"github.com/coreman2200/wyoming-ledring/internal/wyoming"
)

const (
	writeWait = 200 * time.Millisecond
	keepDiags = 16
)

// Hub forwards to an inner sink and mirrors every flushed frame to
// websocket clients.
type Hub struct {
	inner led.Sink
	log   zerolog.Logger
	up    websocket.Upgrader

	mu          sync.RWMutex
	rgb         []byte
	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	recent      []diag.Diagnostic
	active      func() string
	control     wyoming.Handler

	wmu sync.Mutex
}

func NewHub(inner led.Sink) *Hub {
	return &Hub{
		inner:       inner,
		log:         log.With().Str("component", "monitor").Logger(),
		up:          websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		rgb:         make([]byte, inner.Len()*3),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// SetActive supplies the name of the running effect for /health.
func (h *Hub) SetActive(f func() string) {
	h.mu.Lock()
	h.active = f
	h.mu.Unlock()
}

// SetControl routes events posted on /control, usually to the router.
func (h *Hub) SetControl(c wyoming.Handler) {
	h.mu.Lock()
	h.control = c
	h.mu.Unlock()
}

func (h *Hub) Len() int { return h.inner.Len() }

func (h *Hub) Set(i int, c color.RGB) error {
	if err := h.inner.Set(i, c); err != nil {
		return err
	}
	h.mu.Lock()
	h.rgb[i*3], h.rgb[i*3+1], h.rgb[i*3+2] = c.R, c.G, c.B
	h.mu.Unlock()
	return nil
}

func (h *Hub) Flush() error {
	if err := h.inner.Flush(); err != nil {
		return err
	}
	h.mu.Lock()
	h.frameID++
	id := h.frameID
	buf := append([]byte{}, h.rgb...)
	h.mu.Unlock()
	h.broadcastFrame(id, buf)
	return nil
}

func (h *Hub) Close() error {
	h.closeClients()
	return h.inner.Close()
}

// Report pushes d to /diag clients. It satisfies diagnostics.Handler.
func (h *Hub) Report(d diag.Diagnostic) {
	if d.At.IsZero() {
		d.At = time.Now()
	}
	h.mu.Lock()
	h.recent = append(h.recent, d)
	if len(h.recent) > keepDiags {
		h.recent = h.recent[len(h.recent)-keepDiags:]
	}
	conns := keys(h.diagClients)
	h.mu.Unlock()

	b, _ := json.Marshal(d)
	h.write(conns, b)
}

// Routes serves /ws frames, /diag diagnostics, /control events and /health.
func (h *Hub) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, withCORS)
	r.Get("/ws", h.HandleFramesWS)
	r.Get("/diag", h.HandleDiagWS)
	r.Post("/control", h.HandleControl)
	r.Get("/health", h.HandleHealth)
	return r
}

// Serve runs the monitor on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Routes(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		h.closeClients()
	}()
	h.log.Info().Str("addr", addr).Msg("monitor listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	go h.drain(conn, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.diagClients[conn] = true
	backlog := append([]diag.Diagnostic(nil), h.recent...)
	h.mu.Unlock()
	for _, d := range backlog {
		b, _ := json.Marshal(d)
		h.write([]*websocket.Conn{conn}, b)
	}
	go h.drain(conn, h.diagClients)
}

// HandleControl accepts {"event": "<type>", "data": {...}} and hands it to
// the control handler as a wyoming event.
func (h *Hub) HandleControl(w http.ResponseWriter, r *http.Request) {
	var msg struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.Event == "" {
		http.Error(w, "want {\"event\": \"<type>\"}", http.StatusBadRequest)
		return
	}
	h.mu.RLock()
	c := h.control
	h.mu.RUnlock()
	if c == nil {
		http.Error(w, "no control handler", http.StatusServiceUnavailable)
		return
	}
	c.Handle(wyoming.Event{Type: msg.Event, Data: msg.Data})
	w.WriteHeader(http.StatusAccepted)
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"count":    h.inner.Len(),
	}
	active := h.active
	h.mu.RUnlock()
	if active != nil {
		resp["active"] = active()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Hub) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		h.mu.Lock()
		delete(set, conn)
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) broadcastFrame(id uint64, rgb []byte) {
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []int  `json:"rgb"`
	}
	h.mu.RLock()
	conns := keys(h.clients)
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}
	ints := make([]int, len(rgb))
	for i, v := range rgb {
		ints[i] = int(v)
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: ints})
	h.write(conns, b)
}

func (h *Hub) write(conns []*websocket.Conn, b []byte) {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("write")
		}
	}
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	conns := append(keys(h.clients), keys(h.diagClients)...)
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func keys(m map[*websocket.Conn]bool) []*websocket.Conn {
	out := make([]*websocket.Conn, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}
