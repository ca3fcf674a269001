package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/models"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

var productSortFields = []string{"id", "name", "price", "created_at"}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_images.id") }).
		Preload("Confectionery.Address")
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
	return translate(err, "product", "failed to create product")
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.withRelations(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err, "product", "failed to find product")
	}
	return &product, nil
}

// Update writes every scalar column, so a nil description clears it.
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Model(product).
		Omit(clause.Associations).
		Select("name", "price", "description", "confectionery_id").
		Updates(product).Error
	return translate(err, "product", "failed to update product")
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return translate(result.Error, "product", "failed to delete product")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("product")
	}
	return nil
}

func (r *productRepository) DeleteByConfectionery(ctx context.Context, confectioneryID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("confectionery_id = ?", confectioneryID).Delete(&models.Product{})
	if result.Error != nil {
		return 0, translate(result.Error, "product", "failed to delete products")
	}
	return result.RowsAffected, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.ConfectioneryID != nil {
		query = query.Where("confectionery_id = ?", *filter.ConfectioneryID)
	}
	// count and fetch share the filter
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "product", "failed to count products")
	}

	var products []models.Product
	query = utils.ApplySort(query, filter.Pagination, productSortFields)
	query = utils.ApplyPagination(query, filter.Pagination)
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_images.id") }).
		Preload("Confectionery.Address").
		Find(&products).Error
	if err != nil {
		return nil, 0, translate(err, "product", "failed to list products")
	}

	return products, total, nil
}
