package services

import (
	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/models"
)

func (suite *ServiceTestSuite) TestCreateConfectionery() {
	confectionery, err := suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:      strPtr("Doces da Maria"),
		Phone:     strPtr("(19) 99999-1111"),
		Latitude:  floatPtr(-22.817207),
		Longitude: floatPtr(-47.069650),
		HasMap:    boolPtr(true),
		Address: &AddressRequest{
			CEP:          strPtr("13083970"),
			Street:       strPtr("Av. Albert Einstein"),
			Number:       strPtr("1251"),
			Neighborhood: strPtr("Cidade Universitária"),
			State:        strPtr("SP"),
			City:         strPtr("Campinas"),
		},
	})
	suite.Require().NoError(err)

	suite.NotZero(confectionery.ID)
	suite.Require().NotNil(confectionery.Address)
	suite.Equal(confectionery.AddressID, confectionery.Address.ID)
	// supplied fields win over the looked-up ones
	suite.Equal("Av. Albert Einstein", confectionery.Address.Street)
	suite.Equal(int64(1), suite.count(&models.Confectionery{}))
	suite.Equal(int64(1), suite.count(&models.Address{}))
}

func (suite *ServiceTestSuite) TestCreateConfectioneryFillsAddressFromCEP() {
	confectionery, err := suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:  strPtr("Doces da Maria"),
		Phone: strPtr("(19) 99999-1111"),
		Address: &AddressRequest{
			CEP:    strPtr("13083-970"),
			Number: strPtr("1251"),
		},
	})
	suite.Require().NoError(err)

	address := confectionery.Address
	suite.Equal("13083970", address.CEP)
	suite.Equal("Avenida Albert Einstein", address.Street)
	suite.Equal("Cidade Universitária", address.Neighborhood)
	suite.Equal("Campinas", address.City)
	suite.Equal("SP", address.State)
	suite.Equal("1251", address.Number)
	suite.Nil(confectionery.Latitude)
}

func (suite *ServiceTestSuite) TestCreateConfectioneryRejectsOutOfRangeCoordinates() {
	_, err := suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:      strPtr("Doces da Maria"),
		Phone:     strPtr("(19) 99999-1111"),
		Latitude:  floatPtr(91),
		Longitude: floatPtr(181),
		Address:   fullAddress(),
	})
	suite.Require().Error(err)
	suite.ElementsMatch([]string{"latitude", "longitude"}, suite.fieldNames(err))
	suite.Equal(int64(0), suite.count(&models.Confectionery{}))
	suite.Equal(int64(0), suite.count(&models.Address{}))
}

func (suite *ServiceTestSuite) TestCreateConfectioneryRequiresCoordinatesForMap() {
	_, err := suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:    strPtr("Doces da Maria"),
		Phone:   strPtr("(19) 99999-1111"),
		HasMap:  boolPtr(true),
		Address: fullAddress(),
	})
	suite.Require().Error(err)
	suite.ElementsMatch([]string{"latitude", "longitude"}, suite.fieldNames(err))

	_, err = suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:     strPtr("Doces da Maria"),
		Phone:    strPtr("(19) 99999-1111"),
		Latitude: floatPtr(-22.8),
		Address:  fullAddress(),
	})
	suite.Require().Error(err)
	suite.Equal([]string{"longitude"}, suite.fieldNames(err))
}

func (suite *ServiceTestSuite) TestCreateConfectioneryReportsMissingFields() {
	_, err := suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Address: &AddressRequest{CEP: strPtr("123"), State: strPtr("XX")},
	})
	suite.Require().Error(err)
	suite.Subset(suite.fieldNames(err), []string{
		"name", "phone", "address.cep", "address.street", "address.number",
		"address.neighborhood", "address.state", "address.city",
	})
	suite.Equal(int64(0), suite.count(&models.Address{}))
}

func (suite *ServiceTestSuite) TestCreateConfectioneryToleratesLookupFailure() {
	address := fullAddress()
	address.CEP = strPtr("99999999")

	confectionery, err := suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:    strPtr("Confeitaria Paulista"),
		Phone:   strPtr("(11) 99999-2222"),
		Address: address,
	})
	suite.Require().NoError(err)
	suite.Equal("Av. Paulista", confectionery.Address.Street)

	// without the supplied fields the failed lookup surfaces as validation
	_, err = suite.confectioneryService.CreateConfectionery(suite.ctx, &ConfectioneryRequest{
		Name:    strPtr("Confeitaria Paulista"),
		Phone:   strPtr("(11) 99999-2222"),
		Address: &AddressRequest{CEP: strPtr("99999999"), Number: strPtr("10")},
	})
	suite.Require().Error(err)
	suite.Contains(suite.fieldNames(err), "address.street")
}

func (suite *ServiceTestSuite) TestUpdateConfectioneryPartial() {
	created := suite.createConfectionery("Confeitaria Paulista")

	updated, err := suite.confectioneryService.UpdateConfectionery(suite.ctx, created.ID, &ConfectioneryRequest{
		Phone:    strPtr("(11) 98888-0000"),
		Latitude: floatPtr(0),
	})
	suite.Require().NoError(err)

	suite.Equal("Confeitaria Paulista", updated.Name)
	suite.Equal("(11) 98888-0000", updated.Phone)
	suite.Require().NotNil(updated.Latitude)
	suite.Equal(0.0, *updated.Latitude)
	suite.InDelta(-46.655124, *updated.Longitude, 1e-6)
	suite.Equal("Av. Paulista", updated.Address.Street)
	suite.Equal(created.AddressID, updated.AddressID)
}

func (suite *ServiceTestSuite) TestUpdateConfectioneryWithNewCEP() {
	created := suite.createConfectionery("Confeitaria Paulista")

	updated, err := suite.confectioneryService.UpdateConfectionery(suite.ctx, created.ID, &ConfectioneryRequest{
		Address: &AddressRequest{CEP: strPtr("13083-970"), Number: strPtr("1251"), Street: strPtr("Rua Própria")},
	})
	suite.Require().NoError(err)

	address := updated.Address
	suite.Equal("13083970", address.CEP)
	suite.Equal("Rua Própria", address.Street)
	suite.Equal("Cidade Universitária", address.Neighborhood)
	suite.Equal("Campinas", address.City)
	suite.Equal("1251", address.Number)
	suite.Equal(int64(1), suite.count(&models.Address{}))
}

func (suite *ServiceTestSuite) TestUpdateConfectioneryValidation() {
	created := suite.createConfectionery("Confeitaria Paulista")

	_, err := suite.confectioneryService.UpdateConfectionery(suite.ctx, created.ID, &ConfectioneryRequest{
		Latitude: floatPtr(-91),
	})
	suite.Require().Error(err)
	suite.Equal([]string{"latitude"}, suite.fieldNames(err))

	stored, err := suite.confectioneryService.GetConfectionery(suite.ctx, created.ID)
	suite.Require().NoError(err)
	suite.InDelta(-23.561534, *stored.Latitude, 1e-6)
}

func (suite *ServiceTestSuite) TestUpdateConfectioneryNotFound() {
	_, err := suite.confectioneryService.UpdateConfectionery(suite.ctx, 4242, &ConfectioneryRequest{Name: strPtr("x")})
	suite.True(apperrors.IsNotFound(err))
}

func (suite *ServiceTestSuite) TestDeleteConfectioneryCascades() {
	doomed := suite.createConfectionery("Doces da Maria")
	cake := suite.createProduct(doomed.ID, "Bolo de Chocolate", 2)
	pie := suite.createProduct(doomed.ID, "Torta de Morango", 1)

	survivor := suite.createConfectionery("Doces Cariocas")
	pudding := suite.createProduct(survivor.ID, "Pudim de Leite", 1)

	suite.Equal(int64(4), suite.count(&models.ProductImage{}))

	suite.Require().NoError(suite.confectioneryService.DeleteConfectionery(suite.ctx, doomed.ID))

	suite.Equal(int64(1), suite.count(&models.Confectionery{}))
	suite.Equal(int64(1), suite.count(&models.Address{}))
	suite.Equal(int64(1), suite.count(&models.Product{}))
	suite.Equal(int64(1), suite.count(&models.ProductImage{}))

	for _, image := range append(cake.Images, pie.Images...) {
		suite.False(suite.blobExists(image.ImagePath), image.ImagePath)
	}
	suite.True(suite.blobExists(pudding.Images[0].ImagePath))

	_, err := suite.confectioneryService.GetConfectionery(suite.ctx, doomed.ID)
	suite.True(apperrors.IsNotFound(err))

	err = suite.confectioneryService.DeleteConfectionery(suite.ctx, doomed.ID)
	suite.True(apperrors.IsNotFound(err))
}

func (suite *ServiceTestSuite) TestListConfectioneries() {
	first := suite.createConfectionery("Doces da Maria")
	second := suite.createConfectionery("Confeitaria Paulista")
	suite.createProduct(first.ID, "Bolo de Chocolate", 1)
	suite.createProduct(second.ID, "Cheesecake", 0)
	suite.createProduct(second.ID, "Brigadeiros Gourmet", 0)

	listing, err := suite.confectioneryService.ListConfectioneries(suite.ctx)
	suite.Require().NoError(err)

	suite.Len(listing.Confectioneries, 2)
	suite.Len(listing.Products, 3)
	suite.Equal("Doces da Maria", listing.Confectioneries[0].Name)
	suite.NotNil(listing.Confectioneries[0].Address)
	suite.Len(listing.Confectioneries[1].Products, 2)
	suite.NotEmpty(listing.Products[0].Images[0].URL)
}

func (suite *ServiceTestSuite) TestUpdateConfectioneryCreatesMissingAddress() {
	created := suite.createConfectionery("Confeitaria Paulista")

	suite.Require().NoError(suite.db.Exec("PRAGMA foreign_keys = OFF").Error)
	suite.Require().NoError(suite.db.Exec("DELETE FROM addresses WHERE id = ?", created.AddressID).Error)
	suite.Require().NoError(suite.db.Exec("PRAGMA foreign_keys = ON").Error)
	suite.Require().Equal(int64(0), suite.count(&models.Address{}))

	updated, err := suite.confectioneryService.UpdateConfectionery(suite.ctx, created.ID, &ConfectioneryRequest{
		Address: fullAddress(),
	})
	suite.Require().NoError(err)

	suite.Require().NotNil(updated.Address)
	suite.NotZero(updated.Address.ID)
	suite.Equal(updated.Address.ID, updated.AddressID)
	suite.Equal("Av. Paulista", updated.Address.Street)
	suite.Equal("01310200", updated.Address.CEP)
	suite.Equal("Confeitaria Paulista", updated.Name)
	suite.Equal(int64(1), suite.count(&models.Address{}))

	stored, err := suite.confectioneryService.GetConfectionery(suite.ctx, created.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(stored.Address)
	suite.Equal(updated.Address.ID, stored.Address.ID)
}

func (suite *ServiceTestSuite) TestUpdateConfectioneryClearsMapLocation() {
	created := suite.createConfectionery("Confeitaria Paulista")
	suite.Require().True(created.HasMap())

	updated, err := suite.confectioneryService.UpdateConfectionery(suite.ctx, created.ID, &ConfectioneryRequest{
		HasMap: boolPtr(false),
	})
	suite.Require().NoError(err)
	suite.Nil(updated.Latitude)
	suite.Nil(updated.Longitude)
	suite.False(updated.HasMap())

	stored, err := suite.confectioneryService.GetConfectionery(suite.ctx, created.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.Latitude)
	suite.Nil(stored.Longitude)
	suite.Equal("(11) 99999-2222", stored.Phone)
}
