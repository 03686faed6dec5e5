package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProducerWritesOffTheRequestPath(t *testing.T) {
	p := NewProducer("localhost:9092", "directory.review", "", "")
	require.NotNil(t, p)
	require.True(t, p.writer.Async)
	require.NotNil(t, p.writer.Completion)
	require.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)

	// completion tolerates both outcomes
	logCompletion([]kafka.Message{{Key: []byte("review.proposed")}}, errors.New("broker down"))
	logCompletion(nil, nil)
}

func TestNilProducerSkips(t *testing.T) {
	var p *Producer
	require.Nil(t, NewProducer("", "directory.review", "", ""))
	require.NoError(t, p.PublishMessage(context.Background(), []byte("k"), []byte("v")))
	require.NoError(t, p.Close())
}
