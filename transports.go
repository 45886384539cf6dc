package communication

import "context"

// ChannelSender delivers a notification over one channel.
type ChannelSender interface {
	Send(ctx context.Context, delivery *Delivery) error
}

type ChannelSenderFunc func(ctx context.Context, delivery *Delivery) error

func (f ChannelSenderFunc) Send(ctx context.Context, delivery *Delivery) error {
	return f(ctx, delivery)
}
