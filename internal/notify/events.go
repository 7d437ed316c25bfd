package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	pkglog "github.com/weiawesome/wes-io-live/profile-service/pkg/log"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/pubsub"
)

// EventEmitter publishes domain events.
type EventEmitter interface {
	// Emit publishes payload on topic. key groups related events.
	Emit(ctx context.Context, topic, key string, payload any) error
}

// BusEmitter implements EventEmitter on a pubsub.Publisher.
type BusEmitter struct {
	publisher pubsub.Publisher
	logger    zerolog.Logger
}

// NewBusEmitter creates a BusEmitter.
func NewBusEmitter(publisher pubsub.Publisher, logger zerolog.Logger) *BusEmitter {
	return &BusEmitter{
		publisher: publisher,
		logger:    logger.With().Str(pkglog.FieldComponent, "event_emitter").Logger(),
	}
}

func (e *BusEmitter) Emit(ctx context.Context, topic, key string, payload any) error {
	event, err := pubsub.NewEvent(topic, key, payload)
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", topic, err)
	}

	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		return err
	}

	l := pkglog.CtxOr(ctx, e.logger)
	l.Debug().Str(pkglog.FieldTopic, topic).Str("key", key).Msg("event published")
	return nil
}
