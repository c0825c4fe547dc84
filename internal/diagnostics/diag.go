package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes reported by the ring engine.
const (
	EffectStopTimeout = "EFFECT.STOP_TIMEOUT"
	SinkWrite         = "SINK.WRITE"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
	At             time.Time      `json:"at"`
}

// Handler receives diagnostics. Implementations must not block.
type Handler func(Diagnostic)

// Report stamps d and passes it to h; a nil h drops it.
func (h Handler) Report(d Diagnostic) {
	if h == nil {
		return
	}
	if d.At.IsZero() {
		d.At = time.Now()
	}
	h(d)
}
