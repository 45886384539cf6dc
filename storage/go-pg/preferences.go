package gopg

import (
	"context"

	"github.com/go-pg/pg"

	"github.com/interactive-solutions/go-communication-hub"
)

func NewPreferenceRepository(db *pg.DB) communication.PreferenceRepository {
	return &preferenceRepository{
		db: db,
	}
}

type preferenceRepository struct {
	db *pg.DB
}

type preferencesWrapper struct {
	TableName struct{} `sql:"communication_preferences,alias:cp" json:"-"`

	*communication.NotificationPreferences
}

func (repo *preferenceRepository) Get(ctx context.Context, userId string) (communication.NotificationPreferences, error) {
	wrapped := &preferencesWrapper{
		NotificationPreferences: &communication.NotificationPreferences{},
	}

	if err := repo.db.WithContext(ctx).Model(wrapped).Where("user_id = ?", userId).Select(); err != nil {
		if err == pg.ErrNoRows {
			return *wrapped.NotificationPreferences, communication.PreferencesNotFoundErr
		}

		return *wrapped.NotificationPreferences, err
	}

	return *wrapped.NotificationPreferences, nil
}

// Save inserts or replaces the single preferences record of the user.
func (repo *preferenceRepository) Save(ctx context.Context, prefs *communication.NotificationPreferences) error {
	_, err := repo.db.WithContext(ctx).Model(&preferencesWrapper{NotificationPreferences: prefs}).
		OnConflict("(user_id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("sms = EXCLUDED.sms").
		Set("push = EXCLUDED.push").
		Set("in_app = EXCLUDED.in_app").
		Set("quiet_hours = EXCLUDED.quiet_hours").
		Set("updated_at = EXCLUDED.updated_at").
		Insert()

	return err
}
