// internal/services/product_service.go
package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/metrics"
	"github.com/javajoker/confectionery-backend/internal/models"
	"github.com/javajoker/confectionery-backend/internal/repository"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

var maxPrice = decimal.RequireFromString("99999999.99")

type ProductService struct {
	store  repository.Store
	images ImageStore
}

// ImageFile is an uploaded photo.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductRequest is used for both create and partial update. On update a
// non-empty Images list replaces every existing image of the product.
type ProductRequest struct {
	ConfectioneryID *uint            `json:"confectionery_id"`
	Name            *string          `json:"name"`
	Price           *decimal.Decimal `json:"price"`
	Description     *string          `json:"description"`
	Images          []ImageFile      `json:"-"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	ConfectioneryID *uint `json:"confectionery_id,omitempty"`
}

type productRecord struct {
	Name            string `json:"name" validate:"required,max=255"`
	ConfectioneryID uint   `json:"confectionery_id" validate:"required"`
}

func NewProductService(store repository.Store, images ImageStore) *ProductService {
	return &ProductService{
		store:  store,
		images: images,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	product := &models.Product{}
	applyProduct(product, req)

	if err := validateProduct(product, req.Price != nil); err != nil {
		return nil, err
	}

	exists, err := s.store.Confectioneries().Exists(ctx, product.ConfectioneryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("confectionery")
	}

	written, err := s.storeImages(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	var rows []models.ProductImage
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		rows = imageRows(product.ID, written)
		return tx.ProductImages().CreateBatch(ctx, rows)
	})
	if err != nil {
		s.discard(ctx, written)
		return nil, err
	}

	product.Images = rows
	resolveImageURLs(s.images, product.Images)

	logrus.WithFields(logrus.Fields{
		"product_id":       product.ID,
		"confectionery_id": product.ConfectioneryID,
		"images":           len(rows),
	}).Info("Product created")

	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req *ProductRequest) (*models.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousConfectionery := product.ConfectioneryID
	applyProduct(product, req)

	if err := validateProduct(product, true); err != nil {
		return nil, err
	}

	if product.ConfectioneryID != previousConfectionery {
		exists, err := s.store.Confectioneries().Exists(ctx, product.ConfectioneryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.FieldError("confectionery_id", "exists", "selected confectionery does not exist")
		}
	}

	written, err := s.storeImages(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	var replaced []models.ProductImage
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}
		if len(written) == 0 {
			return nil
		}

		var err error
		if replaced, err = tx.ProductImages().FindByProduct(ctx, id); err != nil {
			return err
		}
		if _, err := tx.ProductImages().DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return tx.ProductImages().CreateBatch(ctx, imageRows(id, written))
	})
	if err != nil {
		s.discard(ctx, written)
		return nil, err
	}

	metrics.RecordDeleted("product_image", int64(len(replaced)))
	deleteBlobs(ctx, s.images, replaced)

	logrus.WithFields(logrus.Fields{
		"product_id":      id,
		"images_replaced": len(replaced),
		"images_added":    len(written),
	}).Info("Product updated")

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the product and its image rows in one transaction,
// then deletes the image blobs.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.store.Products().FindByID(ctx, id); err != nil {
		return err
	}

	var images []models.ProductImage
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if images, err = tx.ProductImages().FindByProduct(ctx, id); err != nil {
			return err
		}
		if _, err := tx.ProductImages().DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	metrics.RecordDeleted("product_image", int64(len(images)))
	metrics.RecordDeleted("product", 1)
	deleteBlobs(ctx, s.images, images)

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"images":     len(images),
	}).Info("Product deleted")

	return nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resolveImageURLs(s.images, product.Images)
	return product, nil
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	products, total, err := s.store.Products().List(ctx, repository.ProductFilter{
		ConfectioneryID: params.ConfectioneryID,
		Pagination:      params.PaginationParams,
	})
	if err != nil {
		return nil, 0, err
	}
	if products == nil {
		products = []models.Product{}
	}
	attachImageURLs(s.images, products)
	return products, total, nil
}

// storeImages writes every acceptable image. Images failing validation are
// skipped; any other failure removes what was already written.
func (s *ProductService) storeImages(ctx context.Context, files []ImageFile) ([]string, error) {
	written := make([]string, 0, len(files))
	for _, file := range files {
		path, err := s.images.Store(ctx, file.Data, file.ContentType)
		if err != nil {
			if apperrors.IsValidation(err) {
				logrus.WithError(err).WithFields(logrus.Fields{
					"filename": file.Filename,
					"size":     len(file.Data),
				}).Warn("Skipping invalid product image")
				continue
			}
			s.discard(ctx, written)
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// discard deletes blobs written by an operation that did not commit.
func (s *ProductService) discard(ctx context.Context, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range paths {
		if err := s.images.Delete(ctx, path); err != nil {
			logrus.WithError(err).WithField("path", path).Error("Failed to remove uncommitted product image")
		}
	}
}

func applyProduct(product *models.Product, req *ProductRequest) {
	if req.ConfectioneryID != nil {
		product.ConfectioneryID = *req.ConfectioneryID
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Description != nil {
		if description := strings.TrimSpace(*req.Description); description != "" {
			product.Description = &description
		} else {
			product.Description = nil
		}
	}
}

func validateProduct(product *models.Product, priceSupplied bool) error {
	record := productRecord{
		Name:            product.Name,
		ConfectioneryID: product.ConfectioneryID,
	}
	fields := utils.GetValidationErrors(utils.ValidateStruct(&record))

	switch {
	case !priceSupplied:
		fields = append(fields, utils.ValidationError{Field: "price", Tag: "required", Message: "price is required"})
	case product.Price.IsNegative():
		fields = append(fields, utils.ValidationError{Field: "price", Tag: "min", Message: "price must be at least 0"})
	case product.Price.GreaterThan(maxPrice):
		fields = append(fields, utils.ValidationError{Field: "price", Tag: "max", Message: "price must be at most " + maxPrice.String()})
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields...)
	}

	product.Price = product.Price.Round(2)
	return nil
}

func imageRows(productID uint, paths []string) []models.ProductImage {
	rows := make([]models.ProductImage, 0, len(paths))
	for _, path := range paths {
		rows = append(rows, models.ProductImage{ProductID: productID, ImagePath: path})
	}
	return rows
}

// attachImageURLs resolves the public URL of every product image in place.
func attachImageURLs(images ImageStore, products []models.Product) {
	for i := range products {
		resolveImageURLs(images, products[i].Images)
	}
}

func resolveImageURLs(images ImageStore, rows []models.ProductImage) {
	for i := range rows {
		rows[i].URL = images.URL(rows[i].ImagePath)
	}
}

// deleteBlobs removes the blobs of image rows that are already gone from the
// database. Failures are logged and left for manual cleanup.
func deleteBlobs(ctx context.Context, images ImageStore, rows []models.ProductImage) {
	ctx = context.WithoutCancel(ctx)
	for _, row := range rows {
		if err := images.Delete(ctx, row.ImagePath); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"product_id": row.ProductID,
				"path":       row.ImagePath,
			}).Error("Failed to delete product image blob")
		}
	}
}
