package communication

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var NoContactAddressErr = errors.New("The contact has no address for this channel")

var emailLayout = template.Must(template.New("email").Parse(
	`<html><body><h2>{{ .Title }}</h2><p>{{ .Message }}</p>{{ if .ActionUrl }}<p><a href="{{ .ActionUrl }}">Open</a></p>{{ end }}</body></html>`,
))

type emailChannel struct {
	contacts  ContactDirectory
	transport EmailTransport
}

func NewEmailChannel(contacts ContactDirectory, transport EmailTransport) ChannelSender {
	return &emailChannel{contacts: contacts, transport: transport}
}

func (c *emailChannel) Send(ctx context.Context, d *Delivery) error {
	contact, err := c.contacts.Lookup(ctx, d.UserId)
	if err != nil {
		return errors.Wrapf(err, "Failed to look up contact for user %s", d.UserId)
	}

	if contact.Email == "" {
		return errors.Wrapf(NoContactAddressErr, "email for user %s", d.UserId)
	}

	text := d.Message
	if d.ActionUrl != "" {
		text += "\n\n" + d.ActionUrl
	}

	html := &bytes.Buffer{}
	if err := emailLayout.Execute(html, d); err != nil {
		return errors.Wrap(err, "failed to render html body")
	}

	return c.transport.Send(ctx, contact.Email, d.Title, text, html.String())
}

type smsChannel struct {
	contacts  ContactDirectory
	transport SmsTransport
}

func NewSmsChannel(contacts ContactDirectory, transport SmsTransport) ChannelSender {
	return &smsChannel{contacts: contacts, transport: transport}
}

func (c *smsChannel) Send(ctx context.Context, d *Delivery) error {
	contact, err := c.contacts.Lookup(ctx, d.UserId)
	if err != nil {
		return errors.Wrapf(err, "Failed to look up contact for user %s", d.UserId)
	}

	if contact.Phone == "" {
		return errors.Wrapf(NoContactAddressErr, "phone for user %s", d.UserId)
	}

	message := d.Title + ": " + d.Message
	if d.ActionUrl != "" {
		message += " " + d.ActionUrl
	}

	return c.transport.Send(ctx, contact.Phone, message)
}

type pushChannel struct {
	contacts  ContactDirectory
	transport PushTransport
}

func NewPushChannel(contacts ContactDirectory, transport PushTransport) ChannelSender {
	return &pushChannel{contacts: contacts, transport: transport}
}

func (c *pushChannel) Send(ctx context.Context, d *Delivery) error {
	contact, err := c.contacts.Lookup(ctx, d.UserId)
	if err != nil {
		return errors.Wrapf(err, "Failed to look up contact for user %s", d.UserId)
	}

	if contact.PushEndpoint == "" {
		return errors.Wrapf(NoContactAddressErr, "push endpoint for user %s", d.UserId)
	}

	return c.transport.Push(ctx, contact.PushEndpoint, d.Title, d.Message, d.ActionUrl)
}

type inAppChannel struct {
	inbox InboxRepository
}

func NewInAppChannel(inbox InboxRepository) ChannelSender {
	return &inAppChannel{inbox: inbox}
}

func (c *inAppChannel) Send(ctx context.Context, d *Delivery) error {
	item := &InboxItem{
		Uuid:      uuid.New(),
		UserId:    d.UserId,
		Type:      d.Type,
		Priority:  d.Priority,
		Title:     d.Title,
		Message:   d.Message,
		ActionUrl: d.ActionUrl,
		CreatedAt: time.Now(),
	}

	return errors.Wrap(c.inbox.Create(ctx, item), "Failed to store inbox item")
}

type logChannel struct {
	channel Channel
	logger  logrus.FieldLogger
}

// NewLogChannel returns a sender that only logs. It stands in for channels
// without a configured transport.
func NewLogChannel(channel Channel, logger logrus.FieldLogger) ChannelSender {
	return &logChannel{channel: channel, logger: logger}
}

func (c *logChannel) Send(ctx context.Context, d *Delivery) error {
	c.logger.
		WithField("channel", c.channel).
		WithField("userId", d.UserId).
		WithField("type", d.Type).
		WithField("priority", d.Priority).
		WithField("title", d.Title).
		Info("notification delivered to log channel")

	return nil
}
