package tasks

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"videotube/internal/queue"
)

type ObjectRemover interface {
	Remove(ctx context.Context, key string) error
}

type Processor struct {
	objects ObjectRemover
	logger  zerolog.Logger
}

type TaskPayload struct {
	Type string
	Key  string
}

func NewProcessor(objects ObjectRemover, logger zerolog.Logger) *Processor {
	return &Processor{
		objects: objects,
		logger:  logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	payload, err := decodePayload(msg.Values)
	if err != nil {
		// malformed entries are acked, not retried
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("undecodable task dropped")
		return nil
	}

	switch payload.Type {
	case queue.TaskDeleteObject:
		return p.handleDelete(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}) (TaskPayload, error) {
	typ, _ := values["type"].(string)
	if typ == "" {
		return TaskPayload{}, errors.New("missing task type")
	}
	key, _ := values["key"].(string)
	return TaskPayload{Type: typ, Key: key}, nil
}

func (p *Processor) handleDelete(ctx context.Context, payload TaskPayload) error {
	if payload.Key == "" {
		p.logger.Warn().Msg("delete task without key dropped")
		return nil
	}
	if err := p.objects.Remove(ctx, payload.Key); err != nil {
		return err
	}
	p.logger.Info().Str("object_key", payload.Key).Msg("media object deleted")
	return nil
}
