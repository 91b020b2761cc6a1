package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/opticalquote-backend/internal/pricing"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
)

// SystemActor is recorded on transitions nobody asked for.
const SystemActor = "system"

// Request asks for a user-driven status change. Only the fields relevant to
// the target status are read.
type Request struct {
	To                 enums.QuoteStatus
	Actor              string
	At                 time.Time
	PresentationMethod enums.PresentationMethod
	CustomerSignature  *quote.Signature
	StaffSignature     *quote.Signature
	Reason             string
}

// Manager owns the quote state machine.
type Manager struct {
	pricing pricing.Options
}

func NewManager(opts pricing.Options) Manager {
	return Manager{pricing: opts}
}

// userTransitions is the table of transitions a user may request. Cancel is
// handled separately since it is allowed from every non-terminal state, and
// expiry is system only.
var userTransitions = map[enums.QuoteStatus]enums.QuoteStatus{
	enums.QuoteStatusBuilding:  enums.QuoteStatusDraft,
	enums.QuoteStatusDraft:     enums.QuoteStatusPresented,
	enums.QuoteStatusPresented: enums.QuoteStatusSigned,
	enums.QuoteStatusSigned:    enums.QuoteStatusCompleted,
}

// Allowed reports whether a user may ask for from → to, ignoring guards.
func Allowed(from, to enums.QuoteStatus) bool {
	if to == enums.QuoteStatusCancelled {
		return from.IsValid() && !from.IsTerminal()
	}
	next, ok := userTransitions[from]
	return ok && next == to
}

// Price returns the pricing for q: the frozen snapshot once the quote has
// been presented, a fresh computation otherwise.
func (m Manager) Price(q quote.Quote) quote.Breakdown {
	if q.Status.IsPricingFrozen() && q.Pricing != nil {
		return *q.Pricing
	}
	return pricing.Compute(q, m.pricing)
}

// Transition applies a user-requested status change and returns the new
// quote. On error the returned quote is the input, untouched.
func (m Manager) Transition(q quote.Quote, req Request) (quote.Quote, error) {
	from := q.Status
	if req.To == enums.QuoteStatusExpired {
		return q, invalid(from, req.To, "expiry is applied by the system when expiresAt elapses")
	}
	if !Allowed(from, req.To) {
		return q, invalid(from, req.To, "transition is not allowed")
	}

	out := q.Clone()
	switch req.To {
	case enums.QuoteStatusDraft:
		if !q.HasLineItems() {
			return q, invalid(from, req.To, "quote has no line items")
		}
	case enums.QuoteStatusPresented:
		if q.IsExpiredAt(req.At) {
			return q, invalid(from, req.To, "quote has expired")
		}
		method := req.PresentationMethod
		if method == "" {
			method = q.PresentationMethod
		}
		if !method.IsValid() {
			return q, invalid(from, req.To, "presentation method is required")
		}
		out.PresentationMethod = method
	case enums.QuoteStatusSigned:
		customer := pickSignature(req.CustomerSignature, q.CustomerSignature)
		staff := pickSignature(req.StaffSignature, q.StaffSignature)
		var missing []string
		if !customer.IsComplete() {
			missing = append(missing, "customer")
		}
		if !staff.IsComplete() {
			missing = append(missing, "staff")
		}
		if len(missing) > 0 {
			return q, invalid(from, req.To, fmt.Sprintf("missing %s signature", strings.Join(missing, " and ")))
		}
		out.CustomerSignature = stamp(customer, req.At)
		out.StaffSignature = stamp(staff, req.At)
	case enums.QuoteStatusCancelled:
		if strings.TrimSpace(req.Reason) == "" {
			return q, invalid(from, req.To, "cancellation reason is required")
		}
		out.CancellationReason = strings.TrimSpace(req.Reason)
	}

	return m.commit(out, from, req.To, req.At, req.Actor, out.CancellationReason), nil
}

// Expire moves a draft or presented quote to expired once expiresAt has
// elapsed. It is not reachable through Transition.
func (m Manager) Expire(q quote.Quote, now time.Time) (quote.Quote, error) {
	from := q.Status
	if from != enums.QuoteStatusDraft && from != enums.QuoteStatusPresented {
		return q, invalid(from, enums.QuoteStatusExpired, "only draft or presented quotes expire")
	}
	if !q.IsExpiredAt(now) {
		return q, invalid(from, enums.QuoteStatusExpired, "expiresAt has not elapsed")
	}
	return m.commit(q.Clone(), from, enums.QuoteStatusExpired, now, SystemActor, "expiresAt elapsed"), nil
}

// commit snapshots the pricing of the quote as it stood before the move, so
// a presented snapshot stays frozen through signing and completion.
func (m Manager) commit(out quote.Quote, from, to enums.QuoteStatus, at time.Time, actor, reason string) quote.Quote {
	snapshot := m.Price(out)
	out.Status = to
	out.Pricing = &snapshot
	out.UpdatedAt = at
	out.History = append(out.History, quote.Transition{
		From:    from,
		To:      to,
		At:      at,
		Actor:   actor,
		Reason:  reason,
		Pricing: snapshot,
	})
	return out
}

func pickSignature(requested, existing *quote.Signature) *quote.Signature {
	if requested != nil {
		return requested
	}
	return existing
}

func stamp(sig *quote.Signature, at time.Time) *quote.Signature {
	out := *sig
	if out.SignedAt == nil {
		signedAt := at
		out.SignedAt = &signedAt
	}
	return &out
}

func invalid(from, to enums.QuoteStatus, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition,
		fmt.Sprintf("cannot move quote from %s to %s: %s", from, to, reason)).
		WithDetails(map[string]any{
			"from":   from,
			"to":     to,
			"reason": reason,
		})
}
