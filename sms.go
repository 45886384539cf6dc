package communication

import "context"

type SmsTransport interface {
	Send(ctx context.Context, number string, message string) error
}

type PushTransport interface {
	Push(ctx context.Context, endpoint, title, message, actionUrl string) error
}
