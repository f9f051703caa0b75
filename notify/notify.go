package notify

import "context"

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoOpSender discards every message.
type NoOpSender struct{}

// Send implements Sender.
func (NoOpSender) Send(context.Context, Message) error { return nil }

// ChannelSender buffers messages on a channel so tests can read the
// delivered code.
type ChannelSender struct {
	messages chan Message
}

// NewChannelSender returns a ChannelSender with the given buffer.
func NewChannelSender(buffer int) *ChannelSender {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSender{
		messages: make(chan Message, buffer),
	}
}

// Send implements Sender.
func (s *ChannelSender) Send(ctx context.Context, msg Message) error {
	select {
	case s.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages returns the delivery channel.
func (s *ChannelSender) Messages() <-chan Message {
	return s.messages
}
