package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// SkipFunc is told about every complete line that could not be decoded
type SkipFunc func(line []byte, err error)

// Decoder turns arbitrary chunks of an NDJSON body into events. Partial lines
// are buffered until their newline arrives.
type Decoder struct {
	buf    []byte
	onSkip SkipFunc
}

// NewDecoder creates a decoder. onSkip may be nil.
func NewDecoder(onSkip SkipFunc) *Decoder {
	return &Decoder{onSkip: onSkip}
}

// Feed consumes one chunk and returns the events of every line it completed
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		if ev, ok := d.decode(line, true); ok {
			events = append(events, ev)
		}
		d.buf = d.buf[i+1:]
	}

	// Keep the tail in a fresh array so the consumed prefix can be collected.
	d.buf = append([]byte(nil), d.buf...)
	return events
}

// Flush parses whatever is left once the stream has ended. A fragment that
// does not parse is dropped silently.
func (d *Decoder) Flush() []Event {
	rest := d.buf
	d.buf = nil
	if ev, ok := d.decode(rest, false); ok {
		return []Event{ev}
	}
	return nil
}

func (d *Decoder) decode(line []byte, report bool) (Event, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Event{}, false
	}

	var ev Event
	if err := lenient(json.Unmarshal(line, &ev)); err != nil {
		if report && d.onSkip != nil {
			d.onSkip(append([]byte(nil), line...), err)
		}
		return Event{}, false
	}
	return ev, true
}

// chunkSize is the read size used by ReadEvents
const chunkSize = 4096

// ReadEvents reads r to the end, calling fn for each event in arrival order.
// It stops early when ctx is done or fn returns an error.
func ReadEvents(ctx context.Context, r io.Reader, dec *Decoder, fn func(Event) error) error {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				if err := fn(ev); err != nil {
					return err
				}
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				return readErr
			}
			for _, ev := range dec.Flush() {
				if err := fn(ev); err != nil {
					return err
				}
			}
			return nil
		}
	}
}
