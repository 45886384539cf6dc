package communication

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSms   Channel = "sms"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// Channels lists every channel in dispatch order.
var Channels = []Channel{ChannelEmail, ChannelSms, ChannelPush, ChannelInApp}

type NotificationType string

const (
	TypeNewMessage           NotificationType = "new_message"
	TypeDocumentUploaded     NotificationType = "document_uploaded"
	TypeDocumentSigned       NotificationType = "document_signed"
	TypeReturnCompleted      NotificationType = "return_completed"
	TypePaymentDue           NotificationType = "payment_due"
	TypeDeadlineReminder     NotificationType = "deadline_reminder"
	TypeAppointmentScheduled NotificationType = "appointment_scheduled"
	TypeStatusUpdate         NotificationType = "status_update"
	TypeUrgentMatter         NotificationType = "urgent_matter"
	TypeSystemMaintenance    NotificationType = "system_maintenance"
)

var notificationTypes = map[NotificationType]struct{}{
	TypeNewMessage:           {},
	TypeDocumentUploaded:     {},
	TypeDocumentSigned:       {},
	TypeReturnCompleted:      {},
	TypePaymentDue:           {},
	TypeDeadlineReminder:     {},
	TypeAppointmentScheduled: {},
	TypeStatusUpdate:         {},
	TypeUrgentMatter:         {},
	TypeSystemMaintenance:    {},
}

func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}

	return false
}

// TypeSet is a set of notification types. It encodes as a sorted JSON list.
type TypeSet map[NotificationType]struct{}

func NewTypeSet(types ...NotificationType) TypeSet {
	set := make(TypeSet, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	return set
}

func (s TypeSet) Has(t NotificationType) bool {
	_, ok := s[t]
	return ok
}

func (s TypeSet) Sorted() []NotificationType {
	out := make([]NotificationType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func (s TypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *TypeSet) UnmarshalJSON(data []byte) error {
	var list []NotificationType
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}

	*s = NewTypeSet(list...)

	return nil
}

type ChannelPreference struct {
	Enabled bool    `json:"enabled"`
	Types   TypeSet `json:"types"`
}

func (c ChannelPreference) Accepts(t NotificationType) bool {
	return c.Enabled && c.Types.Has(t)
}

type NotificationPreferences struct {
	UserId string `sql:",pk" json:"userId"`

	Email ChannelPreference `json:"email"`
	Sms   ChannelPreference `json:"sms"`
	Push  ChannelPreference `json:"push"`
	InApp ChannelPreference `json:"inApp"`

	QuietHours QuietHours `json:"quietHours"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// DisabledPreferences is used when a user has no stored preferences.
func DisabledPreferences(userId string) NotificationPreferences {
	return NotificationPreferences{UserId: userId}
}

func (p NotificationPreferences) Channel(c Channel) ChannelPreference {
	switch c {
	case ChannelEmail:
		return p.Email
	case ChannelSms:
		return p.Sms
	case ChannelPush:
		return p.Push
	case ChannelInApp:
		return p.InApp
	}

	return ChannelPreference{}
}

// Validate checks the quiet hours window, timezone and subscribed types.
func (p NotificationPreferences) Validate() error {
	if p.UserId == "" {
		return errors.New("Missing user id")
	}

	for _, c := range Channels {
		for t := range p.Channel(c).Types {
			if !t.Valid() {
				return errors.Errorf("Unknown notification type %q for channel %s", t, c)
			}
		}
	}

	if !p.QuietHours.Enabled {
		return nil
	}

	if _, err := ParseClock(p.QuietHours.Start); err != nil {
		return errors.Wrap(err, "quiet hours start")
	}

	if _, err := ParseClock(p.QuietHours.End); err != nil {
		return errors.Wrap(err, "quiet hours end")
	}

	if p.QuietHours.Timezone != "" {
		if _, err := time.LoadLocation(p.QuietHours.Timezone); err != nil {
			return errors.Wrap(err, "quiet hours timezone")
		}
	}

	return nil
}

type QuietHours struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// Clock is a time of day in minutes since midnight.
type Clock int

func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, errors.Errorf("Invalid time of day %q, HH:MM expected", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.Errorf("Invalid hour in %q", s)
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, errors.Errorf("Invalid minute in %q", s)
	}

	return Clock(h*60 + m), nil
}

// Contains reports whether now falls in the quiet window, evaluated in the
// configured timezone (UTC when empty or unknown). A window whose start is
// after its end wraps midnight; start equal to end is empty.
func (q QuietHours) Contains(now time.Time) bool {
	if !q.Enabled {
		return false
	}

	start, err := ParseClock(q.Start)
	if err != nil {
		return false
	}

	end, err := ParseClock(q.End)
	if err != nil {
		return false
	}

	loc := time.UTC
	if q.Timezone != "" {
		if l, err := time.LoadLocation(q.Timezone); err == nil {
			loc = l
		}
	}

	local := now.In(loc)
	current := Clock(local.Hour()*60 + local.Minute())

	if start <= end {
		return current >= start && current < end
	}

	return current >= start || current < end
}
