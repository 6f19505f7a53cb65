// Package mailtest provides a mail.Sender that records messages in memory.
package mailtest

import (
	"context"
	"sync"

	"github.com/conambiente/conambiente-backend/internal/mail"
)

type Recorder struct {
	mu   sync.Mutex
	sent []mail.Message

	// Fail, when set, decides per message whether Send returns an error.
	Fail func(mail.Message) error
}

func (r *Recorder) Send(_ context.Context, msg mail.Message) error {
	if r.Fail != nil {
		if err := r.Fail(msg); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mail.Message, len(r.sent))
	copy(out, r.sent)
	return out
}
