package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/events"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

type EventHandler interface {
	Handle(ctx context.Context, event events.Event) error
}

// newRetryPolicy retries until the context ends. A store outage stalls the
// partition instead of skipping payments.
func newRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// dispatch decodes one message and hands it to h, retrying transient
// failures according to policy. Undecodable messages and events that can
// never be recorded are logged and dropped so they cannot block the
// partition. A non-nil error means the message was not processed and must
// not be acknowledged.
func dispatch(ctx context.Context, h EventHandler, data []byte, policy backoff.BackOff) error {
	event, err := decodeEvent(data)
	if err != nil {
		telemetry.LedgerEvents.WithLabelValues("invalid").Inc()
		telemetry.Logger.Error("Error unmarshaling event", zap.Error(err))
		return nil
	}

	logger := telemetry.Logger.With(
		zap.String("event_id", event.ID),
		zap.Int64("payment_id", event.PaymentID),
	)
	op := func() error {
		err := h.Handle(ctx, event)
		if errors.Is(err, ErrUnknownBooking) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Recording payment event failed, retrying", zap.Duration("wait", wait), zap.Error(err))
	}

	err = backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
	if errors.Is(err, ErrUnknownBooking) {
		logger.Error("Dropping payment event for unknown booking", zap.Error(err))
		return nil
	}
	if err != nil {
		logger.Error("Error recording payment event", zap.Error(err))
		return err
	}
	return nil
}

type KafkaConsumer struct {
	reader *kafka.Reader
	policy func() backoff.BackOff
}

func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		policy: newRetryPolicy,
	}
}

// Run fetches until ctx is cancelled. An offset is committed only after its
// event has been recorded or deliberately dropped, so a crash mid-record
// redelivers the event.
func (c *KafkaConsumer) Run(ctx context.Context, h EventHandler) error {
	defer c.reader.Close()
	telemetry.Logger.Info("Started consuming payment events from Kafka",
		zap.String("topic", c.reader.Config().Topic))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			telemetry.Logger.Error("Error fetching message from Kafka", zap.Error(err))
			continue
		}

		if err := dispatch(ctx, h, msg.Value, c.policy()); err != nil {
			// Only a cancelled context ends the retry loop; leave the offset
			// uncommitted for the next consumer.
			telemetry.Logger.Warn("Stopping with uncommitted message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			telemetry.Logger.Error("Failed to commit Kafka offset",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

type NatsConsumer struct {
	nc *nats.Conn
}

func NewNatsConsumer(url string) (*NatsConsumer, error) {
	nc, err := nats.Connect(url, nats.Name("safari-buddy-ledger"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsConsumer{nc: nc}, nil
}

// Run subscribes to completed-payment events until ctx is cancelled, then
// drains the connection. Core NATS does not redeliver, so failed records are
// retried in the subscription handler.
func (c *NatsConsumer) Run(ctx context.Context, h EventHandler) error {
	subject := events.Subject(events.PaymentCompleted)
	sub, err := c.nc.QueueSubscribe(subject, "ledger", func(msg *nats.Msg) {
		_ = dispatch(ctx, h, msg.Data, newRetryPolicy())
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	telemetry.Logger.Info("Started consuming payment events from NATS", zap.String("subject", sub.Subject))

	<-ctx.Done()
	return c.nc.Drain()
}
