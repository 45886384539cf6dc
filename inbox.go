package communication

import (
	"time"

	"github.com/google/uuid"
)

// InboxItem is an in-app notification shown in the client portal or dashboard.
type InboxItem struct {
	Uuid   uuid.UUID `sql:",pk,type:uuid" json:"uuid"`
	UserId string    `sql:",notnull" json:"userId"`

	Type     NotificationType `sql:",notnull" json:"type"`
	Priority Priority         `sql:",notnull" json:"priority"`

	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionUrl string `json:"actionUrl,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt"`
}
