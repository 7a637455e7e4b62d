package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MrEthical07/authcore/identity"
)

// ErrDelivery is returned when a message could not be handed to the provider.
var ErrDelivery = errors.New("mail: delivery failed")

// Message is one outbound email.
type Message struct {
	To       identity.Email
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// WriterSender writes each message to W. It is meant for development
// deployments where the operator reads codes from the terminal.
type WriterSender struct {
	mu sync.Mutex
	W  io.Writer
}

// NewWriterSender returns a sender printing to w.
func NewWriterSender(w io.Writer) *WriterSender {
	return &WriterSender{W: w}
}

func (s *WriterSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.W, "--- mail to %s ---\nSubject: %s\n\n%s\n---\n", msg.To, msg.Subject, msg.TextBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Outbox records messages in memory. Setting Err makes Send fail with it.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewOutbox returns an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, o.err)
	}
	o.messages = append(o.messages, msg)
	return nil
}

// FailWith makes subsequent sends fail with err; nil restores delivery.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Last returns the most recent message sent to to.
func (o *Outbox) Last(to identity.Email) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].To == to {
			return o.messages[i], true
		}
	}
	return Message{}, false
}
