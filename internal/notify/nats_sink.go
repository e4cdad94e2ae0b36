package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSSink publishes intents on a core NATS subject.
type NATSSink struct {
	nc      *nats.Conn
	pub     msgPublisher
	subject string
}

// NewNATSSink connects to url and publishes on subject.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url, nats.Name("ticket-escalation"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSSink{nc: nc, pub: nc, subject: subject}, nil
}

func (s *NATSSink) Publish(ctx context.Context, intent domain.NotificationIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(intent)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(s.subject)
	msg.Data = body
	if id := strings.TrimSpace(intent.ID); id != "" {
		msg.Header.Set("Nats-Msg-Id", id)
	}
	if err := s.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish notification intent: %w", err)
	}
	return nil
}

func (s *NATSSink) Close() error {
	if s == nil || s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}

func (s *NATSSink) Name() string {
	return "nats"
}
