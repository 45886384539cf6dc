package gopg

import (
	"github.com/go-pg/pg"
	"github.com/go-pg/pg/orm"
	"github.com/pkg/errors"
)

// CreateSchema creates the tables used by the repositories in this package.
func CreateSchema(db *pg.DB) error {
	models := []interface{}{
		(*templateWrapper)(nil),
		(*preferencesWrapper)(nil),
		(*contactWrapper)(nil),
		(*inboxItemWrapper)(nil),
		(*deliveryWrapper)(nil),
		(*conversationWrapper)(nil),
		(*messageWrapper)(nil),
	}

	for _, model := range models {
		if err := db.CreateTable(model, &orm.CreateTableOptions{IfNotExists: true}); err != nil {
			return errors.Wrapf(err, "Failed to create table for %T", model)
		}
	}

	return nil
}
