// Package stream decodes and encodes the chat event stream: server-sent
// "data: <JSON>" lines ending with "data: [DONE]".
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"

	"github.com/mrz1836/swapdesk/internal/intent"
)

// Event kinds.
const (
	KindContent     = "content"
	KindTransaction = "transaction"
	KindTracking    = "tracking"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"

	// maxLineSize bounds a single line; transaction proposals can be large.
	maxLineSize = 1 << 20
)

// Event is one decoded stream payload: Content, Transaction, or Tracking.
type Event interface {
	Kind() string
}

// Content is a fragment of assistant text.
type Content struct {
	Text string
}

// Kind implements Event.
func (Content) Kind() string { return KindContent }

// Transaction is a proposed intent.
type Transaction struct {
	Intent *intent.Intent
}

// Kind implements Event.
func (Transaction) Kind() string { return KindTransaction }

// Tracking announces the id used to report what the user did with a message.
type Tracking struct {
	MessageID int64
}

// Kind implements Event.
func (Tracking) Kind() string { return KindTracking }

type frame struct {
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data"`
	MessageID int64           `json:"message_id"`
}

// Payloads yields the raw payload of each data line until the [DONE]
// sentinel or EOF. Other lines are ignored. Nothing is read after the
// sentinel. A payload is only valid until the next iteration. The sequence
// can be ranged over once.
func Payloads(r io.Reader) iter.Seq2[[]byte, error] {
	used := false
	return func(yield func([]byte, error) bool) {
		if used {
			return
		}
		used = true

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		for scanner.Scan() {
			line := bytes.TrimRight(scanner.Bytes(), "\r")
			payload, ok := bytes.CutPrefix(line, []byte(dataPrefix))
			if !ok {
				continue
			}
			payload = bytes.TrimPrefix(payload, []byte(" "))
			if bytes.Equal(bytes.TrimSpace(payload), []byte(doneMarker)) {
				return
			}
			if !yield(payload, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Decode yields typed events. Malformed or unknown payloads are skipped.
// A read error is yielded once and ends the sequence.
func Decode(r io.Reader) iter.Seq2[Event, error] {
	payloads := Payloads(r)
	return func(yield func(Event, error) bool) {
		for payload, err := range payloads {
			if err != nil {
				yield(nil, err)
				return
			}
			ev, ok := parse(payload)
			if !ok {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func parse(payload []byte) (Event, bool) {
	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, false
	}

	switch f.Type {
	case KindTracking:
		if f.MessageID == 0 {
			return nil, false
		}
		return Tracking{MessageID: f.MessageID}, true
	case KindTransaction:
		var in intent.Intent
		if len(f.Data) == 0 || json.Unmarshal(f.Data, &in) != nil {
			return nil, false
		}
		return Transaction{Intent: &in}, true
	}

	if f.Content == "" {
		return nil, false
	}
	return Content{Text: f.Content}, true
}
