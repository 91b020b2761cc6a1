package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/payloads"
)

// DecoderFunc turns an envelope's data into a typed payload.
type DecoderFunc func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]DecoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]DecoderFunc)}
}

// NewQuoteDecoders registers the v1 decoders for every quote event.
func NewQuoteDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventQuoteCreated, 1, decodeInto(func() interface{} { return &payloads.QuoteCreatedEvent{} }))
	reg.Register(enums.EventQuoteStatusChanged, 1, decodeInto(func() interface{} { return &payloads.QuoteStatusChangedEvent{} }))
	reg.Register(enums.EventQuotePresented, 1, decodeInto(func() interface{} { return &payloads.QuotePresentedEvent{} }))
	reg.Register(enums.EventQuoteExpired, 1, decodeInto(func() interface{} { return &payloads.QuoteExpiredEvent{} }))
	return reg
}

func decodeInto(factory func() interface{}) DecoderFunc {
	return func(payload json.RawMessage) (interface{}, error) {
		out := factory()
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Register stores a decoder for the given event type and version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder DecoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]; ok {
		return decoder(payload)
	}
	return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
}
