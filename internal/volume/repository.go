package volume

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Repository defines persistence operations for volume bundles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bundle *models.VolumeBundle) (*models.VolumeBundle, error)
	Update(ctx context.Context, bundle *models.VolumeBundle) error
	SetDiscountID(ctx context.Context, id uuid.UUID, discountID string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, shopID string, id uuid.UUID) (*models.VolumeBundle, error)
	ListByShop(ctx context.Context, shopID string) ([]models.VolumeBundle, error)
	ListAggregate(ctx context.Context, shopID string) ([]models.VolumeBundle, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a volume bundle repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bundle *models.VolumeBundle) (*models.VolumeBundle, error) {
	if err := r.db.WithContext(ctx).Create(bundle).Error; err != nil {
		return nil, err
	}
	return bundle, nil
}

func (r *repository) Update(ctx context.Context, bundle *models.VolumeBundle) error {
	return r.db.WithContext(ctx).Save(bundle).Error
}

func (r *repository) SetDiscountID(ctx context.Context, id uuid.UUID, discountID string) error {
	return r.db.WithContext(ctx).
		Model(&models.VolumeBundle{}).
		Where("id = ?", id).
		Update("discount_id", discountID).Error
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.VolumeBundle{}).
		Where("id = ?", id).
		Update("active", active).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.VolumeBundle{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, shopID string, id uuid.UUID) (*models.VolumeBundle, error) {
	var bundle models.VolumeBundle
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&bundle).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) ListByShop(ctx context.Context, shopID string) ([]models.VolumeBundle, error) {
	var bundles []models.VolumeBundle
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&bundles).Error
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

// ListAggregate returns the bundles projected into the shop-wide metafield.
// Product-scoped bundles render from their per-product configs instead.
func (r *repository) ListAggregate(ctx context.Context, shopID string) ([]models.VolumeBundle, error) {
	var bundles []models.VolumeBundle
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND active = ? AND trigger_type <> ?", shopID, true, enums.TriggerTypeProduct).
		Order("created_at ASC").
		Find(&bundles).Error
	if err != nil {
		return nil, err
	}
	return bundles, nil
}
