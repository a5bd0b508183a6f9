// Package sse incrementally decodes a server-sent-event style byte stream
// ("data: <json>" lines) into text fragments.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultTimeout is the inactivity window between two completed reads
	DefaultTimeout = 10 * time.Second

	// DataPrefix marks an event-data line
	DataPrefix = "data: "

	// DoneSentinel ends the stream early
	DoneSentinel = "[DONE]"

	defaultReadSize = 4096
)

var (
	// ErrTimeout is reported when no read completes within the inactivity window
	ErrTimeout = errors.New("응답 시간이 초과되었습니다.")

	// ErrMalformedFrame marks a data payload that is not valid JSON. Such frames are skipped.
	ErrMalformedFrame = errors.New("malformed frame")
)

// Handler receives decoded events. Exactly one of OnError or OnFinish is called
// per Decode, after every OnFragment call.
type Handler struct {
	OnFragment func(text string)
	OnError    func(err error)
	OnFinish   func()
}

type options struct {
	timeout  time.Duration
	readSize int
}

// Option customises Decode
type Option func(*options)

// WithTimeout overrides the inactivity timeout
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithReadSize sets the chunk size requested from the reader
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

// Decode reads r until EOF, the done sentinel, a read error, the inactivity
// timeout or ctx cancellation. If r is an io.Closer it is closed on every exit
// path. The terminal error (nil on normal completion) is also returned.
func Decode(ctx context.Context, r io.Reader, h Handler, opts ...Option) error {
	o := options{timeout: DefaultTimeout, readSize: defaultReadSize}
	for _, opt := range opts {
		opt(&o)
	}

	d := &decoder{handler: h}

	reads := make(chan readResult, 1)
	done := make(chan struct{})
	defer close(done)
	defer release(r)

	go func() {
		for {
			buf := make([]byte, o.readSize)
			n, err := r.Read(buf)
			select {
			case reads <- readResult{data: buf[:n], err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			release(r)
			return d.fail(ctx.Err())

		case <-timer.C:
			release(r)
			return d.fail(ErrTimeout)

		case res := <-reads:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(o.timeout)

			if len(res.data) > 0 {
				if d.feed(res.data) {
					return d.finish()
				}
			}

			if errors.Is(res.err, io.EOF) {
				d.flush()
				return d.finish()
			}
			if res.err != nil {
				return d.fail(res.err)
			}
		}
	}
}

func release(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

type decoder struct {
	handler Handler
	pending []byte // trailing bytes of an incomplete UTF-8 sequence
	buffer  string // decoded text not yet terminated by a newline
	closed  bool
}

// feed decodes one chunk and dispatches every complete line. It reports
// whether the done sentinel was seen.
func (d *decoder) feed(chunk []byte) bool {
	data := append(d.pending, chunk...)
	complete, rest := splitIncomplete(data)
	d.pending = append([]byte(nil), rest...)
	d.buffer += string(complete)

	lines := strings.Split(d.buffer, "\n")
	d.buffer = lines[len(lines)-1]

	for _, line := range lines[:len(lines)-1] {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, DataPrefix) {
			continue
		}
		payload := line[len(DataPrefix):]
		if payload == DoneSentinel {
			return true
		}
		d.emitPayload(payload)
	}
	return false
}

// flush gives the residual buffer one final pass at end of stream
func (d *decoder) flush() {
	if len(d.pending) > 0 {
		d.buffer += string(d.pending)
		d.pending = nil
	}
	if strings.TrimSpace(d.buffer) == "" {
		return
	}

	for _, line := range strings.Split(d.buffer, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, DataPrefix) || len(line) <= len(DataPrefix) {
			continue
		}
		payload := line[len(DataPrefix):]
		if payload == DoneSentinel {
			continue
		}
		d.emitPayload(payload)
	}
	d.buffer = ""
}

func (d *decoder) emitPayload(payload string) {
	text, ok, err := ParseFrame(payload)
	if err != nil || !ok {
		return
	}
	if d.handler.OnFragment != nil {
		d.handler.OnFragment(text)
	}
}

func (d *decoder) finish() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.handler.OnFinish != nil {
		d.handler.OnFinish()
	}
	return nil
}

func (d *decoder) fail(err error) error {
	if d.closed {
		return err
	}
	d.closed = true
	if d.handler.OnError != nil {
		d.handler.OnError(err)
	}
	return err
}

// splitIncomplete separates a trailing, not yet complete UTF-8 sequence
func splitIncomplete(b []byte) (complete, rest []byte) {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		start := len(b) - i
		if !utf8.RuneStart(b[start]) {
			continue
		}
		if !utf8.FullRune(b[start:]) {
			return b[:start], b[start:]
		}
		break
	}
	return b, nil
}

// Chunk is the part of a provider stream payload the decoder cares about
type Chunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Text returns candidates[0].content.parts[0].text. ok is false when any step
// of the path is missing or the text is empty.
func (c Chunk) Text() (string, bool) {
	if len(c.Candidates) == 0 {
		return "", false
	}
	parts := c.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil || *parts[0].Text == "" {
		return "", false
	}
	return *parts[0].Text, true
}

// ParseFrame decodes one data payload. A JSON syntax or type error is reported
// as ErrMalformedFrame.
func ParseFrame(payload string) (string, bool, error) {
	var chunk Chunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	text, ok := chunk.Text()
	return text, ok, nil
}
