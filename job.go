package communication

import (
	"time"

	"github.com/google/uuid"
)

// Delivery is a single notification queued for one channel.
type Delivery struct {
	Uuid    uuid.UUID `sql:",pk,type:uuid" json:"uuid"`
	Channel Channel   `sql:",notnull" json:"channel"`

	UserId   string           `sql:",notnull" json:"userId"`
	Type     NotificationType `sql:",notnull" json:"type"`
	Priority Priority         `sql:",notnull" json:"priority"`

	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionUrl string `json:"actionUrl,omitempty"`

	Attempts  int    `sql:",notnull" json:"attempts"`
	LastError string `json:"lastError,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	SentAt    *time.Time `json:"sentAt"`
}
