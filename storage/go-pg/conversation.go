package gopg

import (
	"context"

	"github.com/go-pg/pg"
	"github.com/google/uuid"

	"github.com/interactive-solutions/go-communication-hub"
)

func NewConversationRepository(db *pg.DB) communication.ConversationRepository {
	return &conversationRepository{
		db: db,
	}
}

type conversationRepository struct {
	db *pg.DB
}

type conversationWrapper struct {
	TableName struct{} `sql:"communication_conversations,alias:cv" json:"-"`

	*communication.Conversation
}

type messageWrapper struct {
	TableName struct{} `sql:"communication_messages,alias:cm" json:"-"`

	*communication.Message
}

func (repo *conversationRepository) Get(ctx context.Context, id uuid.UUID) (communication.Conversation, error) {
	wrapped := &conversationWrapper{
		Conversation: &communication.Conversation{},
	}

	if err := repo.db.WithContext(ctx).Model(wrapped).Where("uuid = ?", id).Select(); err != nil {
		if err == pg.ErrNoRows {
			return *wrapped.Conversation, communication.ConversationNotFoundErr
		}

		return *wrapped.Conversation, err
	}

	return *wrapped.Conversation, nil
}

func (repo *conversationRepository) Messages(ctx context.Context, id uuid.UUID) ([]communication.Message, error) {
	var wrapped []messageWrapper
	messages := make([]communication.Message, 0)

	err := repo.db.WithContext(ctx).Model(&wrapped).
		Where("conversation_uuid = ?", id).
		Order("created_at ASC").
		Select()
	if err != nil && err != pg.ErrNoRows {
		return messages, err
	}

	for _, m := range wrapped {
		messages = append(messages, *m.Message)
	}

	return messages, nil
}

func (repo *conversationRepository) Create(ctx context.Context, conversation *communication.Conversation) error {
	return repo.db.WithContext(ctx).Insert(&conversationWrapper{Conversation: conversation})
}

func (repo *conversationRepository) Update(ctx context.Context, conversation *communication.Conversation) error {
	err := repo.db.WithContext(ctx).Update(&conversationWrapper{Conversation: conversation})
	if err == pg.ErrNoRows {
		return communication.ConversationNotFoundErr
	}

	return err
}

func (repo *conversationRepository) AddMessage(ctx context.Context, message *communication.Message) error {
	return repo.db.WithContext(ctx).Insert(&messageWrapper{Message: message})
}
