package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrz1836/swapdesk/internal/intent"
)

type flusher interface {
	Flush()
}

// Encoder writes events as data frames, flushing after each when the writer
// supports it.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Content writes a content fragment.
func (e *Encoder) Content(text string) error {
	return e.write(struct {
		Content string `json:"content"`
	}{Content: text})
}

// Transaction writes a transaction proposal.
func (e *Encoder) Transaction(in *intent.Intent) error {
	return e.write(struct {
		Type string         `json:"type"`
		Data *intent.Intent `json:"data"`
	}{Type: KindTransaction, Data: in})
}

// Tracking writes a tracking id announcement.
func (e *Encoder) Tracking(messageID int64) error {
	return e.write(struct {
		Type      string `json:"type"`
		MessageID int64  `json:"message_id"`
	}{Type: KindTracking, MessageID: messageID})
}

// Encode writes any event.
func (e *Encoder) Encode(ev Event) error {
	switch v := ev.(type) {
	case Content:
		return e.Content(v.Text)
	case Transaction:
		return e.Transaction(v.Intent)
	case Tracking:
		return e.Tracking(v.MessageID)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

// Done writes the end-of-stream sentinel.
func (e *Encoder) Done() error {
	return e.frame([]byte(doneMarker))
}

func (e *Encoder) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return e.frame(data)
}

func (e *Encoder) frame(payload []byte) error {
	if _, err := fmt.Fprintf(e.w, "%s %s\n\n", dataPrefix, payload); err != nil {
		return err
	}
	if f, ok := e.w.(flusher); ok {
		f.Flush()
	}
	return nil
}
