package gopg

import (
	"github.com/go-pg/pg"

	"github.com/interactive-solutions/go-communication-hub"
)

type templateWrapper struct {
	TableName struct{} `sql:"communication_templates,alias:ct" json:"-"`

	*communication.Template
}

// LoadTemplates reads the template catalog. It is meant to be called once at
// startup, with the result passed to communication.NewTemplateStore.
func LoadTemplates(db *pg.DB) ([]communication.Template, error) {
	var wrapped []templateWrapper
	templates := make([]communication.Template, 0)

	if err := db.Model(&wrapped).Order("id ASC").Select(); err != nil && err != pg.ErrNoRows {
		return templates, err
	}

	for _, t := range wrapped {
		templates = append(templates, *t.Template)
	}

	return templates, nil
}

// SeedTemplates inserts templates whose id is not present yet.
func SeedTemplates(db *pg.DB, templates []communication.Template) error {
	for i := range templates {
		_, err := db.Model(&templateWrapper{Template: &templates[i]}).
			OnConflict("(id) DO NOTHING").
			Insert()
		if err != nil {
			return err
		}
	}

	return nil
}
