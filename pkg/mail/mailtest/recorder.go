// Package mailtest provides an in-memory mail.Mailer for tests.
package mailtest

import (
	"context"
	"sync"

	"github.com/hoaxify/hoaxify/pkg/mail"
)

// Recorder captures every message it is asked to send.
type Recorder struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

var _ mail.Mailer = (*Recorder)(nil)

// Send records msg, or returns the configured failure without recording.
func (r *Recorder) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// FailWith makes subsequent sends return err. Passing nil restores delivery.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]mail.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message and whether one exists.
func (r *Recorder) Last() (mail.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == 0 {
		return mail.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset discards recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
