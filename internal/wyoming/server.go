package wyoming

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Handler processes events for one client. Returning false closes the
// connection.
type Handler interface {
	Handle(ev Event) bool
}

type HandlerFunc func(Event) bool

func (f HandlerFunc) Handle(ev Event) bool { return f(ev) }

// HandlerFactory builds a handler per connection. w writes events back to
// that client and is safe for concurrent use.
type HandlerFactory func(clientID string, w *Writer) Handler

// Writer serializes WriteEvent calls on a connection.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (w *Writer) Write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WriteEvent(w.w, ev)
}

// ParseURI splits tcp://host:port or unix://path into net.Listen arguments.
func ParseURI(uri string) (network, address string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "tcp":
		if u.Host == "" {
			return "", "", fmt.Errorf("uri %q: missing host:port", uri)
		}
		return "tcp", u.Host, nil
	case "unix":
		path := u.Host + u.Path
		if path == "" {
			return "", "", fmt.Errorf("uri %q: missing socket path", uri)
		}
		return "unix", path, nil
	}
	return "", "", fmt.Errorf("uri %q: unsupported scheme %q (want tcp:// or unix://)", uri, u.Scheme)
}

type Server struct {
	URI string

	mu   sync.Mutex
	addr net.Addr
}

// Addr is the bound listener address once Serve is running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve accepts clients until ctx is done. Each connection runs on its own
// goroutine with a handler from factory.
func (s *Server) Serve(ctx context.Context, factory HandlerFactory) error {
	network, address, err := ParseURI(s.URI)
	if err != nil {
		return err
	}
	if network == "unix" {
		_ = os.Remove(address)
		defer os.Remove(address)
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.URI, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	log.Info().Str("component", "wyoming").Str("addr", ln.Addr().String()).Msg("listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			g.Go(func() error {
				s.handle(ctx, conn, factory)
				return nil
			})
		}
	})
	return g.Wait()
}

func (s *Server) handle(ctx context.Context, conn net.Conn, factory HandlerFactory) {
	id := uuid.NewString()
	l := log.With().Str("component", "wyoming").Str("client", id).Logger()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	l.Debug().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
	h := factory(id, NewWriter(conn))
	r := bufio.NewReader(conn)
	for {
		ev, err := ReadEvent(r)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), ctx.Err() != nil, errors.Is(err, net.ErrClosed):
				l.Debug().Msg("client disconnected")
			default:
				l.Warn().Err(err).Msg("read event")
			}
			return
		}
		l.Debug().Str("type", ev.Type).Msg("event")
		if !h.Handle(ev) {
			l.Debug().Msg("handler closed connection")
			return
		}
	}
}
