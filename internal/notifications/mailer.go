package notifications

import (
	"context"

	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

// Attachment is a file sent with an email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a rendered email ready for delivery.
type Message struct {
	From        string
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records messages in the log instead of delivering them.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	ctx = m.logg.WithFields(ctx, map[string]any{
		"to":          msg.To,
		"from":        msg.From,
		"subject":     msg.Subject,
		"attachments": names,
		"html_bytes":  len(msg.HTML),
	})
	m.logg.Info(ctx, "email delivery skipped (log mailer)")
	return nil
}
