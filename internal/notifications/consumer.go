package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/registry"
)

const quoteEmailConsumer = "quote-email"

type claimer interface {
	Claim(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

type quoteSender interface {
	SendQuote(ctx context.Context, event payloads.QuotePresentedEvent) (bool, error)
}

// Consumer emails patients when their quote is presented.
type Consumer struct {
	sender       quoteSender
	subscription *pubsub.Subscriber
	guard        claimer
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds the quote email consumer. The subscription may be nil
// in tests that drive process directly.
func NewConsumer(sender quoteSender, subscription *pubsub.Subscriber, guard claimer, logg *logger.Logger) (*Consumer, error) {
	if sender == nil {
		return nil, fmt.Errorf("quote sender required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		sender:       sender,
		subscription: subscription,
		guard:        guard,
		decoders:     registry.NewQuoteDecoders(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("notification subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
	sent bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) processResult {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventQuotePresented) {
		c.logg.Debug(logCtx, "skipping non-presentation event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Warn(logCtx, "envelope without event id")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	decoded, err := c.decoders.Decode(enums.EventQuotePresented, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	payload, ok := decoded.(*payloads.QuotePresentedEvent)
	if !ok {
		c.logg.Warn(logCtx, "unexpected payload type")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithQuoteID(logCtx, payload.QuoteID.String())

	claimed, err := c.guard.Claim(ctx, quoteEmailConsumer, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !claimed {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	sent, err := c.sender.SendQuote(logCtx, *payload)
	if err != nil {
		c.logg.Error(logCtx, "quote email failed", err)
		if releaseErr := c.guard.Release(ctx, quoteEmailConsumer, envelope.EventID); releaseErr != nil {
			c.logg.Error(logCtx, "release idempotency key", releaseErr)
		}
		return processResult{nack: true}
	}
	if !sent {
		c.logg.Info(logCtx, "quote has no recipient email")
		return processResult{ack: true}
	}
	c.logg.Info(logCtx, "quote email sent")
	return processResult{ack: true, sent: true}
}
