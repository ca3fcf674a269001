package services

import (
	"context"
	"errors"
	"strings"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/models"
	"github.com/javajoker/confectionery-backend/internal/repository"
	"github.com/javajoker/confectionery-backend/internal/testutil"
)

func (suite *ServiceTestSuite) TestCreateProductWithImages() {
	confectionery := suite.createConfectionery("Doces da Maria")

	product, err := suite.productService.CreateProduct(suite.ctx, &ProductRequest{
		ConfectioneryID: uintPtr(confectionery.ID),
		Name:            strPtr("Bolo de Chocolate"),
		Price:           pricePtr("89.9"),
		Images: []ImageFile{
			{Filename: "a.png", ContentType: "image/png", Data: testutil.PNG()},
			{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("not an image at all")},
			{Filename: "b.jpg", ContentType: "image/jpeg", Data: testutil.JPEG()},
		},
	})
	suite.Require().NoError(err)

	suite.Equal("89.9", product.Price.String())
	suite.Equal("R$ 89,90", product.FormattedPrice())
	suite.Nil(product.Description)
	suite.Require().Len(product.Images, 2)
	for _, image := range product.Images {
		suite.True(strings.HasPrefix(image.ImagePath, "products/"))
		suite.Equal("http://doces.test/storage/"+image.ImagePath, image.URL)
		suite.True(suite.blobExists(image.ImagePath))
	}
	suite.Equal(int64(2), suite.count(&models.ProductImage{}))
}

func (suite *ServiceTestSuite) TestCreateProductUnknownConfectionery() {
	_, err := suite.productService.CreateProduct(suite.ctx, &ProductRequest{
		ConfectioneryID: uintPtr(999999),
		Name:            strPtr("Quindim"),
		Price:           pricePtr("40.00"),
		Images:          []ImageFile{{Filename: "q.png", ContentType: "image/png", Data: testutil.PNG()}},
	})
	suite.Require().Error(err)
	suite.True(apperrors.IsNotFound(err))

	suite.Equal(int64(0), suite.count(&models.Product{}))
	suite.Equal(int64(0), suite.count(&models.ProductImage{}))
	suite.Empty(suite.images.written)
}

func (suite *ServiceTestSuite) TestCreateProductValidation() {
	confectionery := suite.createConfectionery("Doces da Maria")

	_, err := suite.productService.CreateProduct(suite.ctx, &ProductRequest{
		ConfectioneryID: uintPtr(confectionery.ID),
		Price:           pricePtr("-1"),
	})
	suite.Require().Error(err)
	suite.ElementsMatch([]string{"name", "price"}, suite.fieldNames(err))

	_, err = suite.productService.CreateProduct(suite.ctx, &ProductRequest{Name: strPtr("Pudim")})
	suite.Require().Error(err)
	suite.ElementsMatch([]string{"confectionery_id", "price"}, suite.fieldNames(err))

	suite.Equal(int64(0), suite.count(&models.Product{}))
}

func (suite *ServiceTestSuite) TestCreateProductRemovesBlobsWhenInsertFails() {
	confectionery := suite.createConfectionery("Doces da Maria")
	suite.Require().NoError(suite.db.Migrator().DropTable(&models.ProductImage{}))

	_, err := suite.productService.CreateProduct(suite.ctx, &ProductRequest{
		ConfectioneryID: uintPtr(confectionery.ID),
		Name:            strPtr("Cheesecake"),
		Price:           pricePtr("95.00"),
		Images: []ImageFile{
			{Filename: "a.png", ContentType: "image/png", Data: testutil.PNG()},
			{Filename: "b.png", ContentType: "image/png", Data: testutil.PNG()},
		},
	})
	suite.Require().Error(err)

	suite.Require().Len(suite.images.written, 2)
	for _, path := range suite.images.written {
		suite.False(suite.blobExists(path), path)
	}
	suite.Equal(int64(0), suite.count(&models.Product{}))
}

// failingImageStore accepts a fixed number of writes and then fails.
type failingImageStore struct {
	*recordingImageStore
	allowed int
}

func (f *failingImageStore) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(f.written) >= f.allowed {
		return "", apperrors.Storage(errors.New("disk full"), "failed to store image")
	}
	return f.recordingImageStore.Store(ctx, data, contentType)
}

func (suite *ServiceTestSuite) TestCreateProductAbortsOnStorageFailure() {
	confectionery := suite.createConfectionery("Doces da Maria")
	failing := &failingImageStore{recordingImageStore: suite.images, allowed: 1}
	service := NewProductService(repository.NewStore(suite.db), failing)

	_, err := service.CreateProduct(suite.ctx, &ProductRequest{
		ConfectioneryID: uintPtr(confectionery.ID),
		Name:            strPtr("Cheesecake"),
		Price:           pricePtr("95.00"),
		Images: []ImageFile{
			{Filename: "a.png", ContentType: "image/png", Data: testutil.PNG()},
			{Filename: "b.png", ContentType: "image/png", Data: testutil.PNG()},
		},
	})
	suite.Require().Error(err)
	suite.Equal(apperrors.KindStorage, apperrors.KindOf(err))

	suite.Require().Len(suite.images.written, 1)
	suite.False(suite.blobExists(suite.images.written[0]))
	suite.Equal(int64(0), suite.count(&models.Product{}))
}

func (suite *ServiceTestSuite) TestUpdateProductReplacesImages() {
	confectionery := suite.createConfectionery("Doces da Maria")
	product := suite.createProduct(confectionery.ID, "Bolo de Chocolate", 2)
	oldPaths := []string{product.Images[0].ImagePath, product.Images[1].ImagePath}

	updated, err := suite.productService.UpdateProduct(suite.ctx, product.ID, &ProductRequest{
		Images: []ImageFile{{Filename: "new.jpg", ContentType: "image/jpeg", Data: testutil.JPEG()}},
	})
	suite.Require().NoError(err)

	suite.Require().Len(updated.Images, 1)
	suite.NotContains(oldPaths, updated.Images[0].ImagePath)
	suite.True(suite.blobExists(updated.Images[0].ImagePath))
	for _, path := range oldPaths {
		suite.False(suite.blobExists(path), path)
	}
	suite.Equal(int64(1), suite.count(&models.ProductImage{}))
	suite.Equal("Bolo de Chocolate", updated.Name)
}

func (suite *ServiceTestSuite) TestUpdateProductPartialKeepsOtherFields() {
	confectionery := suite.createConfectionery("Doces da Maria")
	product := suite.createProduct(confectionery.ID, "Bolo de Chocolate", 1)

	updated, err := suite.productService.UpdateProduct(suite.ctx, product.ID, &ProductRequest{
		Name: strPtr("Bolo de Cenoura"),
		Images: []ImageFile{
			{Filename: "broken.png", ContentType: "image/png", Data: []byte("garbage")},
		},
	})
	suite.Require().NoError(err)

	suite.Equal("Bolo de Cenoura", updated.Name)
	suite.True(updated.Price.Equal(product.Price))
	suite.Require().NotNil(updated.Description)
	suite.Equal("Delicioso", *updated.Description)
	suite.Equal(confectionery.ID, updated.ConfectioneryID)
	// no acceptable image was sent, so the existing one stays
	suite.Require().Len(updated.Images, 1)
	suite.Equal(product.Images[0].ImagePath, updated.Images[0].ImagePath)
	suite.True(suite.blobExists(product.Images[0].ImagePath))
	suite.Require().NotNil(updated.Confectionery)
	suite.Equal("Doces da Maria", updated.Confectionery.Name)
}

func (suite *ServiceTestSuite) TestUpdateProductMovesBetweenConfectioneries() {
	first := suite.createConfectionery("Doces da Maria")
	second := suite.createConfectionery("Doces Cariocas")
	product := suite.createProduct(first.ID, "Quindim", 0)

	_, err := suite.productService.UpdateProduct(suite.ctx, product.ID, &ProductRequest{ConfectioneryID: uintPtr(999999)})
	suite.Require().Error(err)
	suite.Equal([]string{"confectionery_id"}, suite.fieldNames(err))

	updated, err := suite.productService.UpdateProduct(suite.ctx, product.ID, &ProductRequest{ConfectioneryID: uintPtr(second.ID)})
	suite.Require().NoError(err)
	suite.Equal(second.ID, updated.ConfectioneryID)
	suite.Equal("Doces Cariocas", updated.Confectionery.Name)
}

func (suite *ServiceTestSuite) TestUpdateProductNotFound() {
	_, err := suite.productService.UpdateProduct(suite.ctx, 31337, &ProductRequest{Name: strPtr("x")})
	suite.True(apperrors.IsNotFound(err))
}

func (suite *ServiceTestSuite) TestDeleteProduct() {
	confectionery := suite.createConfectionery("Doces da Maria")
	product := suite.createProduct(confectionery.ID, "Torta de Morango", 2)
	other := suite.createProduct(confectionery.ID, "Bolo de Chocolate", 1)

	suite.Require().NoError(suite.productService.DeleteProduct(suite.ctx, product.ID))

	suite.Equal(int64(1), suite.count(&models.Product{}))
	suite.Equal(int64(1), suite.count(&models.ProductImage{}))
	for _, image := range product.Images {
		suite.False(suite.blobExists(image.ImagePath))
	}
	suite.True(suite.blobExists(other.Images[0].ImagePath))

	suite.True(apperrors.IsNotFound(suite.productService.DeleteProduct(suite.ctx, product.ID)))
}

func (suite *ServiceTestSuite) TestSearchProducts() {
	first := suite.createConfectionery("Doces da Maria")
	second := suite.createConfectionery("Confeitaria Paulista")
	suite.createProduct(first.ID, "Bolo de Chocolate", 1)
	suite.createProduct(second.ID, "Cheesecake", 0)
	suite.createProduct(second.ID, "Brigadeiros Gourmet", 0)

	all, total, err := suite.productService.SearchProducts(suite.ctx, ProductSearchParams{})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(all, 3)
	suite.NotEmpty(all[0].Images[0].URL)

	filtered, total, err := suite.productService.SearchProducts(suite.ctx, ProductSearchParams{ConfectioneryID: uintPtr(second.ID)})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(filtered, 2)

	params := ProductSearchParams{ConfectioneryID: uintPtr(second.ID)}
	params.Page, params.Limit, params.Sort, params.Order = 2, 1, "name", "asc"
	paged, total, err := suite.productService.SearchProducts(suite.ctx, params)
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Require().Len(paged, 1)
	suite.Equal("Cheesecake", paged[0].Name)
}

func (suite *ServiceTestSuite) TestUpdateProductKeepsOldImagesWhenReplacementFails() {
	confectionery := suite.createConfectionery("Doces da Maria")
	product := suite.createProduct(confectionery.ID, "Bolo de Chocolate", 1)
	oldPath := product.Images[0].ImagePath

	suite.Require().NoError(suite.db.Exec(`CREATE TRIGGER reject_product_images
		BEFORE INSERT ON product_images
		BEGIN
			SELECT RAISE(ABORT, 'product images are read only');
		END`).Error)

	_, err := suite.productService.UpdateProduct(suite.ctx, product.ID, &ProductRequest{
		Name:   strPtr("Bolo Trufado"),
		Images: []ImageFile{{Filename: "new.jpg", ContentType: "image/jpeg", Data: testutil.JPEG()}},
	})
	suite.Require().Error(err)
	suite.Equal(apperrors.KindStorage, apperrors.KindOf(err))

	// the new blob is removed, the old image survives
	suite.Require().Len(suite.images.written, 2)
	newPath := suite.images.written[1]
	suite.NotEqual(oldPath, newPath)
	suite.False(suite.blobExists(newPath), newPath)
	suite.True(suite.blobExists(oldPath), oldPath)

	stored, err := suite.productService.GetProduct(suite.ctx, product.ID)
	suite.Require().NoError(err)
	suite.Equal("Bolo de Chocolate", stored.Name)
	suite.Require().Len(stored.Images, 1)
	suite.Equal(oldPath, stored.Images[0].ImagePath)
	suite.Equal(int64(1), suite.count(&models.ProductImage{}))
}
