// Package sse turns a chunked HTTP response body into a sequence of
// server-sent events. Framing is newline-delimited `event:`/`data:` line
// pairs; the stream ends on a `[DONE]` data payload, an event named `end`,
// or exhaustion of the body.
package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	doneSentinel = "[DONE]"
	endEventName = "end"

	defaultIdleTimeout = 90 * time.Second

	readChunkSize = 4096
)

// ErrStreamClosed is returned by Next once the stream has terminated
// cleanly (sentinel, end event, or body EOF) and all buffered events have
// been delivered.
var ErrStreamClosed = errors.New("sse: stream closed")

// ErrIdleTimeout is returned when no byte arrives on the stream within the
// configured idle window. The body is closed before it is returned.
var ErrIdleTimeout = errors.New("sse: idle timeout waiting for event")

// Event is one decoded server-sent event. Name may be empty when the
// server emitted a bare data line.
type Event struct {
	Name string
	Data string
}

type chunk struct {
	data []byte
	err  error
}

// Scanner incrementally decodes events from a response body. It is not
// safe for concurrent use; one exchange reads it from a single loop.
type Scanner struct {
	body        io.ReadCloser
	idleTimeout time.Duration

	chunks  chan chunk
	started bool

	buf       []byte  // trailing partial line, raw bytes
	pending   []Event // decoded, not yet returned
	eventName string  // current event name, single-use
	done      bool
	termErr   error // non-nil when the stream died mid-read

	closeOnce sync.Once
}

type Option func(*Scanner)

// WithIdleTimeout overrides the per-event idle deadline. Zero or negative
// disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.idleTimeout = d }
}

// NewScanner wraps a streaming response body. The scanner owns the body
// and closes it on termination, error, or cancellation.
func NewScanner(body io.ReadCloser, opts ...Option) *Scanner {
	s := &Scanner{
		body:        body,
		idleTimeout: defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next blocks until the next event is available. It returns ErrStreamClosed
// after clean termination, ErrIdleTimeout when the stream stalls, and the
// underlying read error when the transport fails mid-stream.
func (s *Scanner) Next(ctx context.Context) (Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.done {
			s.Close()
			if s.termErr != nil {
				return Event{}, s.termErr
			}
			return Event{}, ErrStreamClosed
		}

		if !s.started {
			s.startReader()
		}

		var timer *time.Timer
		var timeout <-chan time.Time
		if s.idleTimeout > 0 {
			timer = time.NewTimer(s.idleTimeout)
			timeout = timer.C
		}

		select {
		case c := <-s.chunks:
			if timer != nil {
				timer.Stop()
			}
			if len(c.data) > 0 {
				s.feed(c.data)
			}
			if c.err != nil {
				s.done = true
				if !errors.Is(c.err, io.EOF) {
					s.termErr = c.err
				}
			}
		case <-timeout:
			s.Close()
			return Event{}, ErrIdleTimeout
		case <-ctx.Done():
			s.Close()
			return Event{}, ctx.Err()
		}
	}
}

// Close cancels the underlying body. Safe to call multiple times.
func (s *Scanner) Close() {
	s.closeOnce.Do(func() {
		s.body.Close()
		if s.started {
			// Unblock the reader goroutine if it is parked on a send.
			go func() {
				for range s.chunks {
				}
			}()
		}
	})
}

func (s *Scanner) startReader() {
	s.started = true
	s.chunks = make(chan chunk)
	go func() {
		defer close(s.chunks)
		buf := make([]byte, readChunkSize)
		for {
			n, err := s.body.Read(buf)
			var cp []byte
			if n > 0 {
				cp = append([]byte(nil), buf[:n]...)
			}
			s.chunks <- chunk{data: cp, err: err}
			if err != nil {
				return
			}
		}
	}()
}

// feed appends a raw chunk to the line buffer and decodes every complete
// line. Splitting happens on the byte level, so a multi-byte UTF-8
// sequence straddling two chunks is reassembled before any string
// conversion.
func (s *Scanner) feed(data []byte) {
	if s.done {
		return
	}
	s.buf = append(s.buf, data...)
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			return
		}
		line := strings.TrimSuffix(string(s.buf[:i]), "\r")
		s.buf = s.buf[i+1:]
		s.processLine(line)
		if s.done {
			// Nothing past the terminator is ever emitted.
			s.buf = nil
			s.Close()
			return
		}
	}
}

func (s *Scanner) processLine(line string) {
	switch {
	case strings.HasPrefix(line, "event:"):
		s.eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		if s.eventName == endEventName {
			s.done = true
		}
	case strings.HasPrefix(line, "data:"):
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneSentinel {
			s.done = true
			return
		}
		s.pending = append(s.pending, Event{Name: s.eventName, Data: payload})
		s.eventName = ""
	default:
		// Comments, blank separators, anything else: discarded.
	}
}
