package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/SundayYogurt/directory_service/internal/interfaces"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/sirupsen/logrus"
)

type KafkaConsumer struct {
	Reader      *kafka.Reader
	Handler     interfaces.ConsumerHandler
	ServiceName string
}

func NewKafkaConsumer(broker, topic, groupID, username, password string, handler interfaces.ConsumerHandler) *KafkaConsumer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if username != "" {
		dialer.TLS = &tls.Config{}
		dialer.SASLMechanism = plain.Mechanism{Username: username, Password: password}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, //10KB
		MaxBytes: 10e6, //10MB
		Dialer:   dialer,
	})

	return &KafkaConsumer{
		Reader:      reader,
		Handler:     handler,
		ServiceName: "Directory Notifier",
	}
}

// Listen reads until ctx is cancelled. Handler errors are logged and the
// message is committed anyway; events are not redelivered.
func (kc *KafkaConsumer) Listen(ctx context.Context) error {
	log := logrus.WithField("service", kc.ServiceName)
	defer func() {
		if err := kc.Reader.Close(); err != nil {
			log.WithError(err).Warn("closing reader failed")
		}
	}()

	for {
		msg, err := kc.Reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Error("read message failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		entry := log.WithFields(logrus.Fields{
			"key":       string(msg.Key),
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		entry.Debug("message received")

		if err := kc.Handler.HandleMessage(ctx, string(msg.Key), msg.Value); err != nil {
			entry.WithError(err).Error("handler failed")
		}
	}
}
