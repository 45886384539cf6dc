package provider

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/pkg/errors"

	"github.com/interactive-solutions/go-communication-hub"
)

type SnsOption func(t *snsTransport)

// SetSenderId sets the alphanumeric sender id shown on SMS where supported.
func SetSenderId(senderId string) SnsOption {
	return func(t *snsTransport) {
		t.senderId = senderId
	}
}

// SetTransactional marks SMS as transactional instead of promotional.
func SetTransactional(transactional bool) SnsOption {
	return func(t *snsTransport) {
		t.transactional = transactional
	}
}

type snsTransport struct {
	sns snsiface.SNSAPI

	senderId      string
	transactional bool
}

// NewSnsTransport returns a transport usable both for SMS and for mobile push
// through platform endpoint ARNs.
func NewSnsTransport(sess *session.Session, options ...SnsOption) *snsTransport {
	return NewSnsTransportWithClient(sns.New(sess), options...)
}

func NewSnsTransportWithClient(client snsiface.SNSAPI, options ...SnsOption) *snsTransport {
	t := &snsTransport{
		sns:           client,
		transactional: true,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

var (
	_ communication.SmsTransport  = (*snsTransport)(nil)
	_ communication.PushTransport = (*snsTransport)(nil)
)

func (t *snsTransport) Send(ctx context.Context, number string, message string) error {
	smsType := "Promotional"
	if t.transactional {
		smsType = "Transactional"
	}

	attributes := map[string]*sns.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(smsType),
		},
	}

	if t.senderId != "" {
		attributes["AWS.SNS.SMS.SenderID"] = &sns.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(t.senderId),
		}
	}

	_, err := t.sns.PublishWithContext(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(number),
		Message:           aws.String(message),
		MessageAttributes: attributes,
	})

	return errors.Wrap(err, "Failed to publish sms through sns")
}

type pushPayload struct {
	Default string `json:"default"`
	GCM     string `json:"GCM"`
	APNS    string `json:"APNS"`
}

func (t *snsTransport) Push(ctx context.Context, endpoint, title, message, actionUrl string) error {
	gcm, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{"title": title, "body": message},
		"data":         map[string]string{"actionUrl": actionUrl},
	})
	if err != nil {
		return err
	}

	apns, err := json.Marshal(map[string]interface{}{
		"aps":       map[string]interface{}{"alert": map[string]string{"title": title, "body": message}},
		"actionUrl": actionUrl,
	})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(pushPayload{
		Default: message,
		GCM:     string(gcm),
		APNS:    string(apns),
	})
	if err != nil {
		return err
	}

	_, err = t.sns.PublishWithContext(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpoint),
		Message:          aws.String(string(payload)),
		MessageStructure: aws.String("json"),
	})

	return errors.Wrap(err, "Failed to publish push notification through sns")
}
