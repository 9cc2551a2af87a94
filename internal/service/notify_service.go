package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/models"
	"github.com/rs/zerolog"
	"gopkg.in/mail.v2"
)

const smtpTimeout = 20 * time.Second

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) NotifyNewEntry(context.Context, models.Entry) error { return nil }

// mailSender is the part of *mail.Dialer the notifier uses
type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// emailNotifier e-mails the site owner about new messages and replies
type emailNotifier struct {
	sender  mailSender
	from    string
	to      string
	ownerID string
	siteURL string
	log     zerolog.Logger
}

// NewNotifier returns an SMTP notifier, or NopNotifier when SMTP is not configured
func NewNotifier(cfg config.NotifyConfig, log zerolog.Logger) Notifier {
	if !cfg.NotifyEnabled() {
		log.Info().Msg("Owner notifications disabled")
		return NopNotifier{}
	}

	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.Timeout = smtpTimeout
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}

	from := cfg.From
	if from == "" {
		from = cfg.SMTPUsername
	}

	return newEmailNotifier(d, from, cfg.To, cfg.OwnerUserID, cfg.SiteURL, log)
}

func newEmailNotifier(sender mailSender, from, to, ownerID, siteURL string, log zerolog.Logger) *emailNotifier {
	return &emailNotifier{
		sender:  sender,
		from:    from,
		to:      to,
		ownerID: ownerID,
		siteURL: siteURL,
		log:     log.With().Str("service", "notifier").Logger(),
	}
}

func (n *emailNotifier) NotifyNewEntry(ctx context.Context, entry models.Entry) error {
	if n.ownerID != "" && entry.Author.ID == n.ownerID {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", subjectFor(entry))
	m.SetBody("text/html", bodyFor(entry, n.siteURL))

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	n.log.Info().
		Str("message_id", entry.MessageID).
		Bool("reply", entry.IsReply()).
		Msg("New entry notification sent")
	return nil
}

func subjectFor(entry models.Entry) string {
	name := entry.Author.Name
	if name == "" {
		name = entry.Author.ID
	}
	if entry.IsReply() {
		return fmt.Sprintf("New guestbook reply from %s", name)
	}
	return fmt.Sprintf("New guestbook message from %s", name)
}

func bodyFor(entry models.Entry, siteURL string) string {
	kind := "message"
	if entry.IsReply() {
		kind = "reply"
	}
	return fmt.Sprintf(
		`<p><a href="%s">%s</a> left a new %s at %s:</p><blockquote>%s</blockquote><p><a href="%s/guestbook#%s">View in guestbook</a></p>`,
		html.EscapeString(entry.Author.GitHubURL),
		html.EscapeString(entry.Author.Name),
		kind,
		entry.CreatedAt.Format(time.RFC1123),
		html.EscapeString(entry.Content),
		html.EscapeString(siteURL),
		html.EscapeString(entry.MessageID),
	)
}
