package registry

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/payloads"
)

func TestQuoteDecoders(t *testing.T) {
	reg := NewQuoteDecoders()

	out, err := reg.Decode(enums.EventQuotePresented, 1, json.RawMessage(`{"recipient_email":"pat@example.com","status":"presented"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	event, ok := out.(*payloads.QuotePresentedEvent)
	if !ok {
		t.Fatalf("unexpected type %T", out)
	}
	if event.RecipientEmail != "pat@example.com" || event.Status != enums.QuoteStatusPresented {
		t.Fatalf("unexpected payload %+v", event)
	}

	if _, err := reg.Decode(enums.EventQuotePresented, 2, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected unknown version error")
	}
	if _, err := reg.Decode(enums.EventQuoteExpired, 1, json.RawMessage(`{`)); err == nil {
		t.Fatal("expected malformed payload error")
	}
}
