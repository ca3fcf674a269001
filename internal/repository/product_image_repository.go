package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/javajoker/confectionery-backend/internal/models"
)

type productImageRepository struct {
	db *gorm.DB
}

func (r *productImageRepository) CreateBatch(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&images).Error
	return translate(err, "product_image", "failed to create product images")
}

func (r *productImageRepository) FindByProduct(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&images).Error
	if err != nil {
		return nil, translate(err, "product_image", "failed to find product images")
	}
	return images, nil
}

func (r *productImageRepository) FindByConfectionery(ctx context.Context, confectioneryID uint) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id IN (?)", r.productIDs(confectioneryID)).
		Order("id").
		Find(&images).Error
	if err != nil {
		return nil, translate(err, "product_image", "failed to find product images")
	}
	return images, nil
}

func (r *productImageRepository) DeleteByProduct(ctx context.Context, productID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{})
	if result.Error != nil {
		return 0, translate(result.Error, "product_image", "failed to delete product images")
	}
	return result.RowsAffected, nil
}

func (r *productImageRepository) DeleteByConfectionery(ctx context.Context, confectioneryID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("product_id IN (?)", r.productIDs(confectioneryID)).
		Delete(&models.ProductImage{})
	if result.Error != nil {
		return 0, translate(result.Error, "product_image", "failed to delete product images")
	}
	return result.RowsAffected, nil
}

func (r *productImageRepository) productIDs(confectioneryID uint) *gorm.DB {
	return r.db.Model(&models.Product{}).Select("id").Where("confectionery_id = ?", confectioneryID)
}
