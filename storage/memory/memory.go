// Package memory holds in-process repositories for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/interactive-solutions/go-communication-hub"
)

type PreferenceRepository struct {
	mu    sync.RWMutex
	prefs map[string]communication.NotificationPreferences
}

func NewPreferenceRepository(prefs ...communication.NotificationPreferences) *PreferenceRepository {
	repo := &PreferenceRepository{
		prefs: make(map[string]communication.NotificationPreferences, len(prefs)),
	}

	for _, p := range prefs {
		repo.prefs[p.UserId] = p
	}

	return repo
}

func (repo *PreferenceRepository) Get(ctx context.Context, userId string) (communication.NotificationPreferences, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	prefs, ok := repo.prefs[userId]
	if !ok {
		return communication.NotificationPreferences{}, communication.PreferencesNotFoundErr
	}

	return prefs, nil
}

func (repo *PreferenceRepository) Save(ctx context.Context, prefs *communication.NotificationPreferences) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.prefs[prefs.UserId] = *prefs

	return nil
}

type ContactDirectory struct {
	mu       sync.RWMutex
	contacts map[string]communication.Contact
}

func NewContactDirectory(contacts ...communication.Contact) *ContactDirectory {
	dir := &ContactDirectory{
		contacts: make(map[string]communication.Contact, len(contacts)),
	}

	for _, c := range contacts {
		dir.contacts[c.UserId] = c
	}

	return dir
}

func (dir *ContactDirectory) Lookup(ctx context.Context, userId string) (communication.Contact, error) {
	dir.mu.RLock()
	defer dir.mu.RUnlock()

	contact, ok := dir.contacts[userId]
	if !ok {
		return communication.Contact{}, communication.ContactNotFoundErr
	}

	return contact, nil
}

type InboxRepository struct {
	mu    sync.RWMutex
	items []communication.InboxItem
}

func NewInboxRepository() *InboxRepository {
	return &InboxRepository{}
}

func (repo *InboxRepository) Create(ctx context.Context, item *communication.InboxItem) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.items = append(repo.items, *item)

	return nil
}

func (repo *InboxRepository) ForUser(ctx context.Context, userId string, unreadOnly bool) ([]communication.InboxItem, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	items := make([]communication.InboxItem, 0)
	for _, item := range repo.items {
		if item.UserId != userId || (unreadOnly && item.ReadAt != nil) {
			continue
		}

		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

func (repo *InboxRepository) MarkRead(ctx context.Context, userId string, id uuid.UUID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for i := range repo.items {
		if repo.items[i].Uuid == id && repo.items[i].UserId == userId {
			now := time.Now()
			repo.items[i].ReadAt = &now
			return nil
		}
	}

	return communication.InboxItemNotFoundErr
}

type DeliveryRepository struct {
	mu          sync.RWMutex
	deliveries  map[uuid.UUID]communication.Delivery
	maxAttempts int
}

// NewDeliveryRepository mirrors the postgres repository: pending deliveries
// are the unsent ones attempted fewer than maxAttempts times. A maxAttempts
// of zero or less disables the limit.
func NewDeliveryRepository(maxAttempts int, pending ...communication.Delivery) *DeliveryRepository {
	repo := &DeliveryRepository{
		deliveries:  make(map[uuid.UUID]communication.Delivery, len(pending)),
		maxAttempts: maxAttempts,
	}

	for _, d := range pending {
		repo.deliveries[d.Uuid] = d
	}

	return repo
}

func (repo *DeliveryRepository) GetPending(ctx context.Context) ([]communication.Delivery, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var pending []communication.Delivery
	for _, d := range repo.deliveries {
		if d.SentAt != nil {
			continue
		}

		if repo.maxAttempts > 0 && d.Attempts >= repo.maxAttempts {
			continue
		}

		pending = append(pending, d)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	return pending, nil
}

func (repo *DeliveryRepository) Create(ctx context.Context, delivery *communication.Delivery) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.deliveries[delivery.Uuid]; exists {
		return errors.Errorf("Delivery %s already exists", delivery.Uuid)
	}

	repo.deliveries[delivery.Uuid] = *delivery

	return nil
}

func (repo *DeliveryRepository) Update(ctx context.Context, delivery *communication.Delivery) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.deliveries[delivery.Uuid]; !exists {
		return communication.DeliveryNotFoundErr
	}

	repo.deliveries[delivery.Uuid] = *delivery

	return nil
}

func (repo *DeliveryRepository) Get(id uuid.UUID) (communication.Delivery, bool) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	d, ok := repo.deliveries[id]
	return d, ok
}

type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]communication.Conversation
	messages      map[uuid.UUID][]communication.Message
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[uuid.UUID]communication.Conversation),
		messages:      make(map[uuid.UUID][]communication.Message),
	}
}

func (repo *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (communication.Conversation, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	c, ok := repo.conversations[id]
	if !ok {
		return communication.Conversation{}, communication.ConversationNotFoundErr
	}

	c.UnreadCounts = copyCounts(c.UnreadCounts)

	return c, nil
}

func (repo *ConversationRepository) Messages(ctx context.Context, id uuid.UUID) ([]communication.Message, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	return append([]communication.Message{}, repo.messages[id]...), nil
}

func (repo *ConversationRepository) Create(ctx context.Context, conversation *communication.Conversation) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	c := *conversation
	c.UnreadCounts = copyCounts(c.UnreadCounts)
	repo.conversations[c.Uuid] = c

	return nil
}

func (repo *ConversationRepository) Update(ctx context.Context, conversation *communication.Conversation) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.conversations[conversation.Uuid]; !ok {
		return communication.ConversationNotFoundErr
	}

	c := *conversation
	c.UnreadCounts = copyCounts(c.UnreadCounts)
	repo.conversations[c.Uuid] = c

	return nil
}

func (repo *ConversationRepository) AddMessage(ctx context.Context, message *communication.Message) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.conversations[message.ConversationUuid]; !ok {
		return communication.ConversationNotFoundErr
	}

	repo.messages[message.ConversationUuid] = append(repo.messages[message.ConversationUuid], *message)

	return nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
