package communication

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	TemplateNotFoundErr     = errors.New("The template was not found")
	PreferencesNotFoundErr  = errors.New("The notification preferences were not found")
	ContactNotFoundErr      = errors.New("The contact was not found")
	ConversationNotFoundErr = errors.New("The conversation was not found")
	DeliveryNotFoundErr     = errors.New("The delivery was not found")
	InboxItemNotFoundErr    = errors.New("The inbox item was not found")
)

type PreferenceRepository interface {
	Get(ctx context.Context, userId string) (NotificationPreferences, error)
	Save(ctx context.Context, prefs *NotificationPreferences) error
}

type Contact struct {
	UserId       string `sql:",pk" json:"userId"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PushEndpoint string `json:"pushEndpoint"`
}

type ContactDirectory interface {
	Lookup(ctx context.Context, userId string) (Contact, error)
}

type InboxRepository interface {
	Create(ctx context.Context, item *InboxItem) error
	ForUser(ctx context.Context, userId string, unreadOnly bool) ([]InboxItem, error)
	MarkRead(ctx context.Context, userId string, id uuid.UUID) error
}

type DeliveryRepository interface {
	GetPending(ctx context.Context) ([]Delivery, error)

	Create(ctx context.Context, delivery *Delivery) error
	Update(ctx context.Context, delivery *Delivery) error
}

type ConversationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (Conversation, error)
	Messages(ctx context.Context, id uuid.UUID) ([]Message, error)

	Create(ctx context.Context, conversation *Conversation) error
	Update(ctx context.Context, conversation *Conversation) error
	AddMessage(ctx context.Context, message *Message) error
}
