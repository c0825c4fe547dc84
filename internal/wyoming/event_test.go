package wyoming

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := []Event{
		{Type: Detection, Data: map[string]any{"name": "ok_nabu"}},
		{Type: "audio-chunk", Data: map[string]any{"rate": 16000.0}, Payload: []byte{1, 2, 3, 4}},
		{Type: Played},
	}
	for _, ev := range in {
		require.NoError(t, WriteEvent(&buf, ev))
	}

	r := bufio.NewReader(&buf)
	for _, want := range in {
		got, err := ReadEvent(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ReadEvent(r)
	assert.Equal(t, io.EOF, err)
}

func TestWriteEventHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEvent(&buf, Event{Type: VoiceStarted}))
	assert.Equal(t, `{"type":"voice-started","version":"`+Version+`"}`+"\n", buf.String())
}

func TestReadEventMergesHeaderData(t *testing.T) {
	raw := `{"type":"info","data":{"a":1,"b":2},"data_length":9}` + "\n" + `{"b":"x"}`
	ev, err := ReadEvent(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": "x"}, ev.Data)
}

func TestReadEventErrors(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want error
	}{
		"empty":     {"", io.EOF},
		"not json":  {"hello\n", ErrBadHeader},
		"no type":   {`{"version":"1"}` + "\n", ErrBadHeader},
		"negative":  {`{"type":"x","payload_length":-1}` + "\n", ErrBadHeader},
		"cut data":  {`{"type":"x","data_length":10}` + "\n" + `{"a"`, io.ErrUnexpectedEOF},
		"cut bytes": {`{"type":"x","payload_length":4}` + "\n" + "ab", io.ErrUnexpectedEOF},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadEvent(bufio.NewReader(strings.NewReader(tc.raw)))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWriteEventNeedsType(t *testing.T) {
	assert.ErrorIs(t, WriteEvent(io.Discard, Event{}), ErrBadHeader)
}
