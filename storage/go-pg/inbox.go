package gopg

import (
	"context"
	"time"

	"github.com/go-pg/pg"
	"github.com/google/uuid"

	"github.com/interactive-solutions/go-communication-hub"
)

func NewInboxRepository(db *pg.DB) communication.InboxRepository {
	return &inboxRepository{
		db: db,
	}
}

type inboxRepository struct {
	db *pg.DB
}

type inboxItemWrapper struct {
	TableName struct{} `sql:"communication_inbox,alias:ci" json:"-"`

	*communication.InboxItem
}

func (repo *inboxRepository) Create(ctx context.Context, item *communication.InboxItem) error {
	return repo.db.WithContext(ctx).Insert(&inboxItemWrapper{InboxItem: item})
}

func (repo *inboxRepository) ForUser(ctx context.Context, userId string, unreadOnly bool) ([]communication.InboxItem, error) {
	var wrapped []inboxItemWrapper
	items := make([]communication.InboxItem, 0)

	builder := repo.db.WithContext(ctx).Model(&wrapped).
		Where("user_id = ?", userId).
		Order("created_at DESC")

	if unreadOnly {
		builder.Where("read_at IS NULL")
	}

	if err := builder.Select(); err != nil && err != pg.ErrNoRows {
		return items, err
	}

	for _, item := range wrapped {
		items = append(items, *item.InboxItem)
	}

	return items, nil
}

func (repo *inboxRepository) MarkRead(ctx context.Context, userId string, id uuid.UUID) error {
	res, err := repo.db.WithContext(ctx).Model(&inboxItemWrapper{InboxItem: &communication.InboxItem{}}).
		Set("read_at = ?", time.Now()).
		Where("uuid = ? AND user_id = ?", id, userId).
		Update()
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return communication.InboxItemNotFoundErr
	}

	return nil
}
