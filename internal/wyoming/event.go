package wyoming

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Version is written into every outgoing header.
const Version = "1.5.2"

// Event types the ring reacts to.
const (
	Detection             = "detection"
	VoiceStarted          = "voice-started"
	VoiceStopped          = "voice-stopped"
	StreamingStarted      = "streaming-started"
	StreamingStopped      = "streaming-stopped"
	SatelliteConnected    = "satellite-connected"
	SatelliteDisconnected = "satellite-disconnected"
	Played                = "played"

	Describe = "describe"
	Info     = "info"
)

var ErrBadHeader = errors.New("wyoming: bad event header")

// maxLength bounds data and payload sections.
const maxLength = 16 << 20

type Event struct {
	Type    string
	Data    map[string]any
	Payload []byte
}

type header struct {
	Type          string         `json:"type"`
	Version       string         `json:"version,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	DataLength    int            `json:"data_length,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

// ReadEvent reads one event. It returns io.EOF when r ends cleanly before
// a header and io.ErrUnexpectedEOF when a section is cut short.
func ReadEvent(r *bufio.Reader) (Event, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) == 0 {
			return Event{}, io.EOF
		}
		if !errors.Is(err, io.EOF) {
			return Event{}, err
		}
	}
	var h header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrBadHeader)
	}
	if h.DataLength < 0 || h.DataLength > maxLength || h.PayloadLength < 0 || h.PayloadLength > maxLength {
		return Event{}, fmt.Errorf("%w: section length out of range", ErrBadHeader)
	}

	ev := Event{Type: h.Type, Data: h.Data}
	if h.DataLength > 0 {
		buf := make([]byte, h.DataLength)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Event{}, unexpected(err)
		}
		var extra map[string]any
		if err := json.Unmarshal(buf, &extra); err != nil {
			return Event{}, fmt.Errorf("%w: data: %v", ErrBadHeader, err)
		}
		if ev.Data == nil {
			ev.Data = make(map[string]any, len(extra))
		}
		for k, v := range extra {
			ev.Data[k] = v
		}
	}
	if h.PayloadLength > 0 {
		ev.Payload = make([]byte, h.PayloadLength)
		if _, err := io.ReadFull(r, ev.Payload); err != nil {
			return Event{}, unexpected(err)
		}
	}
	return ev, nil
}

// WriteEvent writes ev as a header line followed by its data and payload.
func WriteEvent(w io.Writer, ev Event) error {
	if ev.Type == "" {
		return fmt.Errorf("%w: missing type", ErrBadHeader)
	}
	h := header{Type: ev.Type, Version: Version, PayloadLength: len(ev.Payload)}
	var data []byte
	if len(ev.Data) > 0 {
		var err error
		if data, err = json.Marshal(ev.Data); err != nil {
			return fmt.Errorf("wyoming: encode data: %w", err)
		}
		h.DataLength = len(data)
	}
	line, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("wyoming: encode header: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(line) + 1 + len(data) + len(ev.Payload))
	buf.Write(line)
	buf.WriteByte('\n')
	buf.Write(data)
	buf.Write(ev.Payload)
	_, err = w.Write(buf.Bytes())
	return err
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
