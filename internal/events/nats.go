package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

const natsSubjectPrefix = "payments."

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("safari-buddy"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsPublisher{nc: nc}, nil
}

// Subject maps an event type to its NATS subject, e.g. payments.payment_completed.
func Subject(t Type) string {
	return natsSubjectPrefix + strings.ReplaceAll(string(t), ".", "_")
}

func (p *NatsPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.nc.Publish(Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s to nats: %w", event.Type, err)
	}
	return nil
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}
