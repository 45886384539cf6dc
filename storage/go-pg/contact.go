package gopg

import (
	"context"

	"github.com/go-pg/pg"

	"github.com/interactive-solutions/go-communication-hub"
)

func NewContactDirectory(db *pg.DB) communication.ContactDirectory {
	return &contactDirectory{
		db: db,
	}
}

type contactDirectory struct {
	db *pg.DB
}

type contactWrapper struct {
	TableName struct{} `sql:"communication_contacts,alias:cc" json:"-"`

	*communication.Contact
}

func (repo *contactDirectory) Lookup(ctx context.Context, userId string) (communication.Contact, error) {
	wrapped := &contactWrapper{
		Contact: &communication.Contact{},
	}

	if err := repo.db.WithContext(ctx).Model(wrapped).Where("user_id = ?", userId).Select(); err != nil {
		if err == pg.ErrNoRows {
			return *wrapped.Contact, communication.ContactNotFoundErr
		}

		return *wrapped.Contact, err
	}

	return *wrapped.Contact, nil
}
