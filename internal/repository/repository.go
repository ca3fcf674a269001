// Package repository defines the persistence contracts used by the services
// and their gorm implementation.
package repository

import (
	"context"

	"github.com/javajoker/confectionery-backend/internal/models"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

// Store groups the entity repositories. A Store handed to the function given
// to Transaction is bound to that transaction: every write made through it
// commits or rolls back together.
type Store interface {
	Addresses() AddressRepository
	Confectioneries() ConfectioneryRepository
	Products() ProductRepository
	ProductImages() ProductImageRepository

	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	FindByID(ctx context.Context, id uint) (*models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id uint) error
}

type ConfectioneryRepository interface {
	Create(ctx context.Context, confectionery *models.Confectionery) error
	// FindByID loads the address and the products with their images.
	FindByID(ctx context.Context, id uint) (*models.Confectionery, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, confectionery *models.Confectionery) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.Confectionery, error)
}

// ProductFilter narrows a product listing. A zero Pagination.Limit returns
// every match.
type ProductFilter struct {
	ConfectioneryID *uint
	Pagination      utils.PaginationParams
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	// FindByID loads the images and the owning confectionery with its address.
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	DeleteByConfectionery(ctx context.Context, confectioneryID uint) (int64, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
}

type ProductImageRepository interface {
	CreateBatch(ctx context.Context, images []models.ProductImage) error
	FindByProduct(ctx context.Context, productID uint) ([]models.ProductImage, error)
	FindByConfectionery(ctx context.Context, confectioneryID uint) ([]models.ProductImage, error)
	DeleteByProduct(ctx context.Context, productID uint) (int64, error)
	DeleteByConfectionery(ctx context.Context, confectioneryID uint) (int64, error)
}
