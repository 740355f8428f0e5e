package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// turnPayload renders fullTurn as an NDJSON body
func turnPayload(t *testing.T) []byte {
	var b strings.Builder
	for _, ev := range fullTurn(t) {
		line, err := json.Marshal(ev)
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func TestDecoder_SingleChunk(t *testing.T) {
	payload := turnPayload(t)
	dec := NewDecoder(nil)

	events := append(dec.Feed(payload), dec.Flush()...)

	require.Len(t, events, len(fullTurn(t)))
	want, got := applyAll(t, fullTurn(t)).View(), applyAll(t, events).View()
	assert.Equal(t, want.Steps, got.Steps)
	assert.Equal(t, want.Data, got.Data)
	assert.Equal(t, want.FinalMessage, got.FinalMessage)
	require.Len(t, got.Recipes, 2)
	assert.Equal(t, int64(2), got.Recipes[1].ID)
	assert.Equal(t, 45, got.Recipes[1].ReadyInMinutes)
}

func TestDecoder_SplitAtEveryOffset(t *testing.T) {
	payload := turnPayload(t)
	dec := NewDecoder(nil)
	want := applyAll(t, append(dec.Feed(payload), dec.Flush()...))

	for offset := 1; offset < len(payload); offset++ {
		dec := NewDecoder(nil)
		events := dec.Feed(payload[:offset])
		events = append(events, dec.Feed(payload[offset:])...)
		events = append(events, dec.Flush()...)

		if !assert.Equal(t, want, applyAll(t, events), "split at %d", offset) {
			return
		}
	}
}

func TestDecoder_MalformedLineIsSkipped(t *testing.T) {
	// Arrange
	var skipped []string
	dec := NewDecoder(func(line []byte, err error) {
		skipped = append(skipped, string(line))
	})
	body := "{\"type\":\"message\",\"message\":\"one\"}\n" +
		"{not json}\n" +
		"   \n" +
		"{\"type\":\"message\",\"message\":\"two\"}\n"

	// Act
	events := dec.Feed([]byte(body))

	// Assert
	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Message)
	assert.Equal(t, "two", events[1].Message)
	assert.Equal(t, []string{"{not json}"}, skipped)
}

func TestDecoder_Flush(t *testing.T) {
	t.Run("trailing line without newline is parsed", func(t *testing.T) {
		dec := NewDecoder(nil)

		assert.Empty(t, dec.Feed([]byte(`{"type":"message","message":"tail"}`)))
		events := dec.Flush()

		require.Len(t, events, 1)
		assert.Equal(t, "tail", events[0].Message)
	})

	t.Run("broken trailing fragment is swallowed", func(t *testing.T) {
		called := false
		dec := NewDecoder(func([]byte, error) { called = true })

		dec.Feed([]byte(`{"type":"comp`))

		assert.Empty(t, dec.Flush())
		assert.False(t, called)
	})

	t.Run("flush resets the buffer", func(t *testing.T) {
		dec := NewDecoder(nil)
		dec.Feed([]byte(`{"type":"message"}`))
		dec.Flush()

		assert.Empty(t, dec.Flush())
	})
}

func TestReadEvents(t *testing.T) {
	t.Run("one byte at a time", func(t *testing.T) {
		// Arrange
		r := iotest.OneByteReader(strings.NewReader(string(turnPayload(t))))
		var events []Event

		// Act
		err := ReadEvents(context.Background(), r, NewDecoder(nil), func(ev Event) error {
			events = append(events, ev)
			return nil
		})

		// Assert
		require.NoError(t, err)
		assert.Len(t, events, len(fullTurn(t)))
		assert.True(t, applyAll(t, events).Complete)
	})

	t.Run("read error is returned", func(t *testing.T) {
		boom := errors.New("connection reset")
		r := iotest.ErrReader(boom)

		err := ReadEvents(context.Background(), r, NewDecoder(nil), func(Event) error { return nil })

		assert.ErrorIs(t, err, boom)
	})

	t.Run("callback error stops reading", func(t *testing.T) {
		stop := errors.New("stop")
		count := 0

		err := ReadEvents(context.Background(), strings.NewReader(string(turnPayload(t))), NewDecoder(nil),
			func(Event) error {
				count++
				return stop
			})

		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, count)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := ReadEvents(ctx, strings.NewReader("{}\n"), NewDecoder(nil), func(Event) error { return nil })

		assert.ErrorIs(t, err, context.Canceled)
	})
}
