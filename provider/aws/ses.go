package provider

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/pkg/errors"

	"github.com/interactive-solutions/go-communication-hub"
)

type sesTransport struct {
	ses sesiface.SESAPI

	from    string
	charset string
}

func NewSesTransport(sess *session.Session, from string) communication.EmailTransport {
	return NewSesTransportWithClient(ses.New(sess), from)
}

func NewSesTransportWithClient(client sesiface.SESAPI, from string) communication.EmailTransport {
	return &sesTransport{
		ses:     client,
		from:    from,
		charset: "UTF-8",
	}
}

func (transport *sesTransport) Send(ctx context.Context, email, subject, textBody, htmlBody string) error {
	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{
				aws.String(email),
			},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String(transport.charset),
					Data:    aws.String(htmlBody),
				},
				Text: &ses.Content{
					Charset: aws.String(transport.charset),
					Data:    aws.String(textBody),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String(transport.charset),
				Data:    aws.String(subject),
			},
		},

		Source: aws.String(transport.from),
	}

	if _, err := transport.ses.SendEmailWithContext(ctx, input); err != nil {
		return errors.Wrap(err, "Failed to send email through ses")
	}

	return nil
}
