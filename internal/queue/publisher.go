package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const TaskDeleteObject = "media.delete"

// Publisher appends cleanup tasks to the media stream.
type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// EnqueueDelete schedules removal of a stored object that is no longer referenced.
func (p *Publisher) EnqueueDelete(ctx context.Context, objectKey string) error {
	if p == nil || p.client == nil || objectKey == "" {
		return nil
	}

	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type": TaskDeleteObject,
			"key":  objectKey,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue delete %s: %w", objectKey, err)
	}
	return nil
}
