// internal/services/confectionery_service.go
package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/metrics"
	"github.com/javajoker/confectionery-backend/internal/models"
	"github.com/javajoker/confectionery-backend/internal/repository"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

type ConfectioneryService struct {
	store  repository.Store
	images ImageStore
	postal PostalLookup
}

// AddressRequest carries address fields. Nil or blank fields are treated as
// not supplied.
type AddressRequest struct {
	CEP          *string `json:"cep" form:"address[cep]"`
	Street       *string `json:"street" form:"address[street]"`
	Number       *string `json:"number" form:"address[number]"`
	Neighborhood *string `json:"neighborhood" form:"address[neighborhood]"`
	State        *string `json:"state" form:"address[state]"`
	City         *string `json:"city" form:"address[city]"`
}

// ConfectioneryRequest is used for both create and partial update.
type ConfectioneryRequest struct {
	Name      *string         `json:"name"`
	Phone     *string         `json:"phone"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	HasMap    *bool           `json:"has_map"`
	Address   *AddressRequest `json:"address"`
}

// ConfectioneryListing is the marketplace front page: every confectionery
// plus all of their products flattened into one list.
type ConfectioneryListing struct {
	Confectioneries []models.Confectionery `json:"confectioneries"`
	Products        []models.Product       `json:"products"`
}

type addressRecord struct {
	CEP          string `json:"cep" validate:"required,len=8,numeric"`
	Street       string `json:"street" validate:"required,max=255"`
	Number       string `json:"number" validate:"required,max=20"`
	Neighborhood string `json:"neighborhood" validate:"required,max=100"`
	State        string `json:"state" validate:"required,len=2,uf"`
	City         string `json:"city" validate:"required,max=100"`
}

type confectioneryRecord struct {
	Name      string        `json:"name" validate:"required,max=255"`
	Phone     string        `json:"phone" validate:"required,max=20"`
	Latitude  *float64      `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64      `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address   addressRecord `json:"address"`
}

func NewConfectioneryService(store repository.Store, images ImageStore, postal PostalLookup) *ConfectioneryService {
	return &ConfectioneryService{
		store:  store,
		images: images,
		postal: postal,
	}
}

func (s *ConfectioneryService) CreateConfectionery(ctx context.Context, req *ConfectioneryRequest) (*models.Confectionery, error) {
	address := &models.Address{}
	if req.Address != nil {
		applyAddress(address, req.Address)
		if supplied(req.Address.CEP) {
			s.enrichAddress(ctx, address, req.Address)
		}
	}

	confectionery := &models.Confectionery{}
	applyConfectionery(confectionery, req)

	if err := validateConfectionery(confectionery, address, req.HasMap); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Addresses().Create(ctx, address); err != nil {
			return err
		}
		confectionery.AddressID = address.ID
		return tx.Confectioneries().Create(ctx, confectionery)
	})
	if err != nil {
		return nil, err
	}

	confectionery.Address = address

	logrus.WithFields(logrus.Fields{
		"confectionery_id": confectionery.ID,
		"address_id":       address.ID,
	}).Info("Confectionery created")

	return confectionery, nil
}

func (s *ConfectioneryService) UpdateConfectionery(ctx context.Context, id uint, req *ConfectioneryRequest) (*models.Confectionery, error) {
	confectionery, err := s.store.Confectioneries().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	address := confectionery.Address
	createAddress := address == nil
	if createAddress {
		address = &models.Address{}
	}

	if req.Address != nil {
		newCEP := supplied(req.Address.CEP) && digitsOnly(*req.Address.CEP) != address.CEP
		applyAddress(address, req.Address)
		if newCEP {
			s.enrichAddress(ctx, address, req.Address)
		}
	}

	applyConfectionery(confectionery, req)

	if err := validateConfectionery(confectionery, address, req.HasMap); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if createAddress {
			if err := tx.Addresses().Create(ctx, address); err != nil {
				return err
			}
			confectionery.AddressID = address.ID
		} else if err := tx.Addresses().Update(ctx, address); err != nil {
			return err
		}
		return tx.Confectioneries().Update(ctx, confectionery)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("confectionery_id", id).Info("Confectionery updated")

	return s.GetConfectionery(ctx, id)
}

// DeleteConfectionery removes the confectionery, its address, its products
// and their images in one transaction, then deletes the image blobs.
func (s *ConfectioneryService) DeleteConfectionery(ctx context.Context, id uint) error {
	confectionery, err := s.store.Confectioneries().FindByID(ctx, id)
	if err != nil {
		return err
	}

	var (
		images                 []models.ProductImage
		imageRows, productRows int64
	)
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if images, err = tx.ProductImages().FindByConfectionery(ctx, id); err != nil {
			return err
		}
		if imageRows, err = tx.ProductImages().DeleteByConfectionery(ctx, id); err != nil {
			return err
		}
		if productRows, err = tx.Products().DeleteByConfectionery(ctx, id); err != nil {
			return err
		}
		if err := tx.Confectioneries().Delete(ctx, id); err != nil {
			return err
		}
		if confectionery.AddressID != 0 {
			if err := tx.Addresses().Delete(ctx, confectionery.AddressID); err != nil && !apperrors.IsNotFound(err) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordDeleted("product_image", imageRows)
	metrics.RecordDeleted("product", productRows)
	metrics.RecordDeleted("confectionery", 1)
	metrics.RecordDeleted("address", 1)

	deleteBlobs(ctx, s.images, images)

	logrus.WithFields(logrus.Fields{
		"confectionery_id": id,
		"products":         productRows,
		"images":           imageRows,
	}).Info("Confectionery deleted")

	return nil
}

func (s *ConfectioneryService) GetConfectionery(ctx context.Context, id uint) (*models.Confectionery, error) {
	confectionery, err := s.store.Confectioneries().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attachImageURLs(s.images, confectionery.Products)
	return confectionery, nil
}

func (s *ConfectioneryService) ListConfectioneries(ctx context.Context) (*ConfectioneryListing, error) {
	confectioneries, err := s.store.Confectioneries().List(ctx)
	if err != nil {
		return nil, err
	}

	listing := &ConfectioneryListing{
		Confectioneries: confectioneries,
		Products:        []models.Product{},
	}
	for i := range confectioneries {
		attachImageURLs(s.images, confectioneries[i].Products)
		listing.Products = append(listing.Products, confectioneries[i].Products...)
	}
	if listing.Confectioneries == nil {
		listing.Confectioneries = []models.Confectionery{}
	}

	return listing, nil
}

// enrichAddress fills the address fields the caller did not supply from the
// postal lookup. Lookup problems never fail the write.
func (s *ConfectioneryService) enrichAddress(ctx context.Context, address *models.Address, req *AddressRequest) {
	if s.postal == nil || len(address.CEP) != cepLength {
		return
	}

	fields, err := s.postal.Lookup(ctx, address.CEP)
	if err != nil {
		entry := logrus.WithError(err).WithField("cep", address.CEP)
		if apperrors.IsNotFound(err) {
			entry.Info("CEP not found, keeping supplied address fields")
		} else {
			entry.Warn("CEP lookup failed, keeping supplied address fields")
		}
		return
	}

	fill := func(target *string, requested *string, found string) {
		if !supplied(requested) && found != "" {
			*target = found
		}
	}
	fill(&address.Street, req.Street, fields.Street)
	fill(&address.Neighborhood, req.Neighborhood, fields.Neighborhood)
	fill(&address.City, req.City, fields.City)
	fill(&address.State, req.State, fields.State)
}

func applyAddress(address *models.Address, req *AddressRequest) {
	if supplied(req.CEP) {
		address.CEP = digitsOnly(*req.CEP)
	}
	if supplied(req.Street) {
		address.Street = strings.TrimSpace(*req.Street)
	}
	if supplied(req.Number) {
		address.Number = strings.TrimSpace(*req.Number)
	}
	if supplied(req.Neighborhood) {
		address.Neighborhood = strings.TrimSpace(*req.Neighborhood)
	}
	if supplied(req.State) {
		address.State = strings.ToUpper(strings.TrimSpace(*req.State))
	}
	if supplied(req.City) {
		address.City = strings.TrimSpace(*req.City)
	}
}

func applyConfectionery(confectionery *models.Confectionery, req *ConfectioneryRequest) {
	if supplied(req.Name) {
		confectionery.Name = strings.TrimSpace(*req.Name)
	}
	if supplied(req.Phone) {
		confectionery.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Latitude != nil {
		latitude := *req.Latitude
		confectionery.Latitude = &latitude
	}
	if req.Longitude != nil {
		longitude := *req.Longitude
		confectionery.Longitude = &longitude
	}

	// has_map=false removes the map location
	if req.HasMap != nil && !*req.HasMap {
		confectionery.Latitude = nil
		confectionery.Longitude = nil
	}
}

func validateConfectionery(confectionery *models.Confectionery, address *models.Address, hasMap *bool) error {
	record := confectioneryRecord{
		Name:      confectionery.Name,
		Phone:     confectionery.Phone,
		Latitude:  confectionery.Latitude,
		Longitude: confectionery.Longitude,
		Address: addressRecord{
			CEP:          address.CEP,
			Street:       address.Street,
			Number:       address.Number,
			Neighborhood: address.Neighborhood,
			State:        address.State,
			City:         address.City,
		},
	}

	fields := utils.GetValidationErrors(utils.ValidateStruct(&record))

	// coordinates travel together, and are mandatory when a map is shown
	wantMap := hasMap != nil && *hasMap
	if confectionery.Latitude == nil && (wantMap || confectionery.Longitude != nil) {
		fields = append(fields, utils.ValidationError{
			Field: "latitude", Tag: "required_with", Message: "latitude is required when a map location is given",
		})
	}
	if confectionery.Longitude == nil && (wantMap || confectionery.Latitude != nil) {
		fields = append(fields, utils.ValidationError{
			Field: "longitude", Tag: "required_with", Message: "longitude is required when a map location is given",
		})
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields...)
	}
	return nil
}

func supplied(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
