package diagnostics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandlerReport(t *testing.T) {
	var got []Diagnostic
	h := Handler(func(d Diagnostic) { got = append(got, d) })

	h.Report(Diagnostic{Severity: Warn, Code: EffectStopTimeout})
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	h.Report(Diagnostic{Severity: Err, Code: SinkWrite, At: at})

	assert.Len(t, got, 2)
	assert.False(t, got[0].At.IsZero())
	assert.Equal(t, at, got[1].At)
}

func TestNilHandlerDrops(t *testing.T) {
	var h Handler
	assert.NotPanics(t, func() { h.Report(Diagnostic{Code: SinkWrite}) })
}
