package interfaces

import "context"

type ConsumerHandler interface {
	HandleMessage(ctx context.Context, key string, value []byte) error
}

type ProducerHandler interface {
	PublishMessage(ctx context.Context, key, value []byte) error
}
