package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/opticalquote-backend/internal/quotes"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

const defaultExpiryBatch = 200

type quoteExpirer interface {
	ExpireDue(ctx context.Context, now time.Time, limit int) (quotes.ExpirySummary, error)
}

type QuoteExpiryJobParams struct {
	Logger    *logger.Logger
	Quotes    quoteExpirer
	BatchSize int
}

func NewQuoteExpiryJob(params QuoteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Quotes == nil {
		return nil, fmt.Errorf("quote service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &quoteExpiryJob{
		logg:  params.Logger,
		svc:   params.Quotes,
		batch: batch,
		now:   time.Now,
	}, nil
}

// quoteExpiryJob moves draft and presented quotes past expiresAt to expired.
type quoteExpiryJob struct {
	logg  *logger.Logger
	svc   quoteExpirer
	batch int
	now   func() time.Time
}

func (j *quoteExpiryJob) Name() string { return "quote-expiry" }

func (j *quoteExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	summary, err := j.svc.ExpireDue(ctx, now, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": summary.Scanned,
		"expired": summary.Expired,
		"skipped": summary.Skipped,
		"batch":   j.batch,
	})
	if err != nil {
		return fmt.Errorf("quote expiry: %w", err)
	}
	if summary.Scanned == j.batch {
		j.logg.Warn(logCtx, "expiry batch full; remaining quotes roll to the next cycle")
	}
	j.logg.Info(logCtx, "quote expiry sweep complete")
	return nil
}
