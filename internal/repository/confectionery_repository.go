package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/models"
)

type confectioneryRepository struct {
	db *gorm.DB
}

func (r *confectioneryRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Address").
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.id") }).
		Preload("Products.Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_images.id") })
}

func (r *confectioneryRepository) Create(ctx context.Context, confectionery *models.Confectionery) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(confectionery).Error
	return translate(err, "confectionery", "failed to create confectionery")
}

func (r *confectioneryRepository) FindByID(ctx context.Context, id uint) (*models.Confectionery, error) {
	var confectionery models.Confectionery
	if err := r.withRelations(ctx).First(&confectionery, id).Error; err != nil {
		return nil, translate(err, "confectionery", "failed to find confectionery")
	}
	return &confectionery, nil
}

func (r *confectioneryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Confectionery{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, translate(err, "confectionery", "failed to check confectionery")
	}
	return count > 0, nil
}

// Update writes every scalar column, so coordinates cleared on the model are
// cleared in the row.
func (r *confectioneryRepository) Update(ctx context.Context, confectionery *models.Confectionery) error {
	err := r.db.WithContext(ctx).Model(confectionery).
		Omit(clause.Associations).
		Select("name", "latitude", "longitude", "phone", "address_id").
		Updates(confectionery).Error
	return translate(err, "confectionery", "failed to update confectionery")
}

func (r *confectioneryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Confectionery{}, id)
	if result.Error != nil {
		return translate(result.Error, "confectionery", "failed to delete confectionery")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("confectionery")
	}
	return nil
}

func (r *confectioneryRepository) List(ctx context.Context) ([]models.Confectionery, error) {
	var confectioneries []models.Confectionery
	if err := r.withRelations(ctx).Order("id").Find(&confectioneries).Error; err != nil {
		return nil, translate(err, "confectionery", "failed to list confectioneries")
	}
	return confectioneries, nil
}
