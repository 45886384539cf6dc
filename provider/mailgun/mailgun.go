package mailgun

import (
	"context"

	"github.com/mailgun/mailgun-go/v3"
	"github.com/pkg/errors"

	"github.com/interactive-solutions/go-communication-hub"
)

type MailgunOption func(t *mailgunTransport) error

func SetFrom(from string) MailgunOption {
	return func(e *mailgunTransport) error {
		if from == "" {
			return errors.New("Empty from address")
		}

		e.from = from
		return nil
	}
}

func SetReplyTo(replyTo string) MailgunOption {
	return func(e *mailgunTransport) error {
		e.replyTo = replyTo
		return nil
	}
}

// SetTags adds tags to every message, used for Mailgun analytics.
func SetTags(tags ...string) MailgunOption {
	return func(e *mailgunTransport) error {
		e.tags = append(e.tags, tags...)
		return nil
	}
}

type mailgunTransport struct {
	mg mailgun.Mailgun

	from    string
	replyTo string
	tags    []string
}

func NewMailgunTransport(mailgunClient mailgun.Mailgun, options ...MailgunOption) (communication.EmailTransport, error) {
	t := &mailgunTransport{
		mg: mailgunClient,
	}

	for _, option := range options {
		if err := option(t); err != nil {
			return nil, err
		}
	}

	if t.from == "" {
		return nil, errors.New("Missing from address")
	}

	return t, nil
}

func (t *mailgunTransport) Send(ctx context.Context, email, subject, textBody, htmlBody string) error {
	msg := t.mg.NewMessage(t.from, subject, textBody, email)
	msg.SetHtml(htmlBody)

	if len(t.tags) > 0 {
		if err := msg.AddTag(t.tags...); err != nil {
			return errors.Wrap(err, "Failed to add tags")
		}
	}

	if t.replyTo != "" {
		msg.SetReplyTo(t.replyTo)
	}

	_, _, err := t.mg.Send(ctx, msg)
	return errors.Wrap(err, "Failed to send message")
}
