package trace

import (
	"bufio"
	"fmt"
	"io"
)

// Reader decodes a trace lazily with a single event of lookahead.
// It never holds more than one decoded, unconsumed event.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	pending Event
	has     bool
	err     error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Peek returns the buffered event, decoding the next line if nothing is
// buffered. It returns io.EOF once the input is exhausted, or the
// *DecodeError of a malformed line. Both conditions are sticky.
func (r *Reader) Peek() (Event, error) {
	if r.has {
		return r.pending, nil
	}
	if r.err != nil {
		return Event{}, r.err
	}

	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			r.err = fmt.Errorf("failed to read trace line %d: %w", r.line+1, err)
		} else {
			r.err = io.EOF
		}
		return Event{}, r.err
	}
	r.line++

	ev, err := Decode(r.sc.Text())
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Line = r.line
		}
		r.err = err
		return Event{}, err
	}
	r.pending, r.has = ev, true
	return ev, nil
}

// Consume drops the buffered event.
func (r *Reader) Consume() {
	r.pending, r.has = Event{}, false
}

// Line returns the number of lines read so far.
func (r *Reader) Line() int {
	return r.line
}

// ReadAll decodes every remaining event. It stops at the first error other
// than io.EOF and returns the events read so far with that error.
func ReadAll(r io.Reader) ([]Event, error) {
	tr := NewReader(r)
	var events []Event
	for {
		ev, err := tr.Peek()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
		tr.Consume()
	}
}
