package gopg

import (
	"context"

	"github.com/go-pg/pg"

	"github.com/interactive-solutions/go-communication-hub"
)

// NewDeliveryRepository returns a repository whose pending deliveries are the
// unsent ones attempted fewer than maxAttempts times.
func NewDeliveryRepository(db *pg.DB, maxAttempts int) communication.DeliveryRepository {
	return &deliveryRepository{
		db:          db,
		maxAttempts: maxAttempts,
	}
}

type deliveryWrapper struct {
	TableName struct{} `sql:"communication_deliveries,alias:cd" json:"-"`

	*communication.Delivery
}

type deliveryRepository struct {
	db          *pg.DB
	maxAttempts int
}

func (repo *deliveryRepository) Create(ctx context.Context, delivery *communication.Delivery) error {
	return repo.db.WithContext(ctx).Insert(&deliveryWrapper{Delivery: delivery})
}

func (repo *deliveryRepository) Update(ctx context.Context, delivery *communication.Delivery) error {
	err := repo.db.WithContext(ctx).Update(&deliveryWrapper{Delivery: delivery})
	if err == pg.ErrNoRows {
		return communication.DeliveryNotFoundErr
	}

	return err
}

func (repo *deliveryRepository) GetPending(ctx context.Context) ([]communication.Delivery, error) {
	var deliveries []communication.Delivery
	var wrapped []deliveryWrapper

	builder := repo.db.WithContext(ctx).Model(&wrapped).
		Where("sent_at IS NULL").
		Order("created_at ASC")

	if repo.maxAttempts > 0 {
		builder.Where("attempts < ?", repo.maxAttempts)
	}

	if err := builder.Select(); err != nil {
		if err == pg.ErrNoRows {
			return deliveries, nil
		}

		return deliveries, err
	}

	for _, d := range wrapped {
		deliveries = append(deliveries, *d.Delivery)
	}

	return deliveries, nil
}
