package communication

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ConversationMismatchErr = errors.New("The message belongs to another conversation")

// Conversation is a thread between a client and the tax preparer assigned to them.
type Conversation struct {
	Uuid       uuid.UUID `sql:",pk,type:uuid" json:"uuid"`
	ClientId   string    `sql:",notnull" json:"clientId"`
	AssignedTo string    `sql:",notnull" json:"assignedTo"`
	Subject    string    `json:"subject"`

	UnreadCounts map[string]int `json:"unreadCounts"`

	LastMessageAt *time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type Message struct {
	Uuid             uuid.UUID `sql:",pk,type:uuid" json:"uuid"`
	ConversationUuid uuid.UUID `sql:",notnull,type:uuid" json:"conversationUuid"`
	SenderId         string    `sql:",notnull" json:"senderId"`

	Body        string   `json:"body"`
	Attachments []string `json:"attachments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func NewConversation(clientId, assignedTo, subject string) *Conversation {
	return &Conversation{
		Uuid:         uuid.New(),
		ClientId:     clientId,
		AssignedTo:   assignedTo,
		Subject:      subject,
		UnreadCounts: map[string]int{},
		CreatedAt:    time.Now(),
	}
}

func (c *Conversation) Participants() []string {
	return []string{c.ClientId, c.AssignedTo}
}

// Recipients are the participants other than sender.
func (c *Conversation) Recipients(sender string) []string {
	var out []string
	for _, p := range c.Participants() {
		if p != sender {
			out = append(out, p)
		}
	}

	return out
}

// Append records msg on the conversation, raising the unread count of every
// participant except the sender.
func (c *Conversation) Append(msg *Message) error {
	if msg.ConversationUuid != c.Uuid {
		return errors.Wrapf(ConversationMismatchErr, "message %s, conversation %s", msg.Uuid, c.Uuid)
	}

	if c.UnreadCounts == nil {
		c.UnreadCounts = map[string]int{}
	}

	for _, p := range c.Recipients(msg.SenderId) {
		c.UnreadCounts[p]++
	}

	at := msg.CreatedAt
	c.LastMessageAt = &at

	return nil
}

func (c *Conversation) MarkRead(participant string) {
	if c.UnreadCounts == nil {
		return
	}

	delete(c.UnreadCounts, participant)
}

func (c *Conversation) Unread(participant string) int {
	return c.UnreadCounts[participant]
}
