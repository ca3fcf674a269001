package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/models"
)

type addressRepository struct {
	db *gorm.DB
}

func (r *addressRepository) Create(ctx context.Context, address *models.Address) error {
	err := r.db.WithContext(ctx).Create(address).Error
	return translate(err, "address", "failed to create address")
}

func (r *addressRepository) FindByID(ctx context.Context, id uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, id).Error; err != nil {
		return nil, translate(err, "address", "failed to find address")
	}
	return &address, nil
}

func (r *addressRepository) Update(ctx context.Context, address *models.Address) error {
	err := r.db.WithContext(ctx).Model(address).
		Select("cep", "street", "number", "neighborhood", "state", "city").
		Updates(address).Error
	return translate(err, "address", "failed to update address")
}

func (r *addressRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Address{}, id)
	if result.Error != nil {
		return translate(result.Error, "address", "failed to delete address")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("address")
	}
	return nil
}
