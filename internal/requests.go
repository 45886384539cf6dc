package internal

import "encoding/json"

type RenderTemplateRequest struct {
	Variables map[string]interface{} `json:"variables"`
	Profile   json.RawMessage        `json:"profile,omitempty"`
}

// ProfileAttributes holds the free-form attributes of a client profile.
type ProfileAttributes struct {
	Attributes map[string]interface{} `json:"attributes"`
}

type NotifyRequest struct {
	UserId    string `json:"userId"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionUrl string `json:"actionUrl"`
}

type PostMessageRequest struct {
	SenderId    string   `json:"senderId"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}
