package queue

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/sirupsen/logrus"
)

// publishTimeout bounds enqueueing a message; the async writer never waits
// on the broker here.
const publishTimeout = time.Second

type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns nil when no broker is configured; a nil producer
// skips publishing.
func NewProducer(broker, topic, username, password string) *Producer {
	if broker == "" || topic == "" {
		logrus.Warn("kafka broker not configured, review events disabled")
		return nil
	}

	transport := kafka.DefaultTransport
	if username != "" {
		transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: username, Password: password},
			TLS:  &tls.Config{},
		}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			// writes leave the request path; delivery failures surface in Completion
			Async:        true,
			Completion:   logCompletion,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func logCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	keys := make([]string, 0, len(messages))
	for _, m := range messages {
		keys = append(keys, string(m.Key))
	}
	logrus.WithError(err).WithField("keys", keys).Warn("review events not delivered")
}

func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	// kafka not ready must never fail the request that produced the event
	if p == nil || p.writer == nil {
		logrus.WithField("key", string(key)).Debug("kafka producer not ready, skip publish")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
