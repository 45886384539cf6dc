package communication

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type preferenceRepository struct {
	prefs map[string]NotificationPreferences
	err   error
}

func (repo *preferenceRepository) Get(ctx context.Context, userId string) (NotificationPreferences, error) {
	if repo.err != nil {
		return NotificationPreferences{}, repo.err
	}

	prefs, ok := repo.prefs[userId]
	if !ok {
		return NotificationPreferences{}, PreferencesNotFoundErr
	}

	return prefs, nil
}

func (repo *preferenceRepository) Save(ctx context.Context, prefs *NotificationPreferences) error {
	if repo.prefs == nil {
		repo.prefs = map[string]NotificationPreferences{}
	}

	repo.prefs[prefs.UserId] = *prefs
	return nil
}

type deliveryRepository struct {
	mu      sync.Mutex
	pending []Delivery
	created []Delivery
	updated []Delivery
}

func (repo *deliveryRepository) GetPending(ctx context.Context) ([]Delivery, error) {
	return repo.pending, nil
}

func (repo *deliveryRepository) Create(ctx context.Context, d *Delivery) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.created = append(repo.created, *d)
	return nil
}

func (repo *deliveryRepository) Update(ctx context.Context, d *Delivery) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.updated = append(repo.updated, *d)
	return nil
}

func (repo *deliveryRepository) Updated() []Delivery {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return append([]Delivery(nil), repo.updated...)
}

type contactDirectory map[string]Contact

func (dir contactDirectory) Lookup(ctx context.Context, userId string) (Contact, error) {
	c, ok := dir[userId]
	if !ok {
		return Contact{}, ContactNotFoundErr
	}

	return c, nil
}

type inboxRepository struct {
	mu    sync.Mutex
	items []InboxItem
}

func (repo *inboxRepository) Create(ctx context.Context, item *InboxItem) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.items = append(repo.items, *item)
	return nil
}

func (repo *inboxRepository) ForUser(ctx context.Context, userId string, unreadOnly bool) ([]InboxItem, error) {
	return repo.items, nil
}

func (repo *inboxRepository) MarkRead(ctx context.Context, userId string, id uuid.UUID) error {
	return nil
}

// recordingSender pushes every delivery it is asked to send onto a channel.
type recordingSender struct {
	deliveries chan *Delivery
	err        error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{deliveries: make(chan *Delivery, 16)}
}

func (s *recordingSender) Send(ctx context.Context, d *Delivery) error {
	s.deliveries <- d
	return s.err
}

func (s *recordingSender) receive(t *testing.T) *Delivery {
	t.Helper()

	select {
	case d := <-s.deliveries:
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func (s *recordingSender) assertIdle(t *testing.T) {
	t.Helper()

	select {
	case d := <-s.deliveries:
		t.Fatalf("unexpected delivery on channel %s", d.Channel)
	case <-time.After(50 * time.Millisecond):
	}
}

type emailTransport struct {
	to, subject, text, html string
	err                     error
}

func (t *emailTransport) Send(ctx context.Context, email, subject, textBody, htmlBody string) error {
	t.to, t.subject, t.text, t.html = email, subject, textBody, htmlBody
	return t.err
}

type smsTransport struct {
	number, message string
}

func (t *smsTransport) Send(ctx context.Context, number string, message string) error {
	t.number, t.message = number, message
	return nil
}

type pushTransport struct {
	endpoint, title, message, actionUrl string
}

func (t *pushTransport) Push(ctx context.Context, endpoint, title, message, actionUrl string) error {
	t.endpoint, t.title, t.message, t.actionUrl = endpoint, title, message, actionUrl
	return nil
}
