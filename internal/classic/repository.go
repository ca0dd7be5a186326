package classic

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
)

// Repository defines persistence operations for classic bundles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bundle *models.Bundle) (*models.Bundle, error)
	Update(ctx context.Context, bundle *models.Bundle) error
	SetDiscountID(ctx context.Context, id uuid.UUID, discountID string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, shopID string, id uuid.UUID) (*models.Bundle, error)
	ListByShop(ctx context.Context, shopID string) ([]models.Bundle, error)
	ListActive(ctx context.Context, shopID string) ([]models.Bundle, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a classic bundle repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bundle *models.Bundle) (*models.Bundle, error) {
	if err := r.db.WithContext(ctx).Create(bundle).Error; err != nil {
		return nil, err
	}
	return bundle, nil
}

func (r *repository) Update(ctx context.Context, bundle *models.Bundle) error {
	return r.db.WithContext(ctx).Save(bundle).Error
}

func (r *repository) SetDiscountID(ctx context.Context, id uuid.UUID, discountID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Bundle{}).
		Where("id = ?", id).
		Update("discount_id", discountID).Error
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Bundle{}).
		Where("id = ?", id).
		Update("active", active).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Bundle{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, shopID string, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&bundle).Error
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) ListByShop(ctx context.Context, shopID string) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&bundles).Error
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r *repository) ListActive(ctx context.Context, shopID string) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND active = ?", shopID, true).
		Order("created_at ASC").
		Find(&bundles).Error
	if err != nil {
		return nil, err
	}
	return bundles, nil
}
