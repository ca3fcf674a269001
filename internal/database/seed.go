// internal/database/seed.go
package database

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/confectionery-backend/internal/models"
)

type seedProduct struct {
	name        string
	price       string
	description string
	images      []string
}

type seedConfectionery struct {
	name      string
	latitude  float64
	longitude float64
	phone     string
	address   models.Address
	products  []seedProduct
}

var mockConfectioneries = []seedConfectionery{
	{
		name:      "Doces da Maria",
		latitude:  -22.817207,
		longitude: -47.069650,
		phone:     "(19) 99999-1111",
		address: models.Address{
			CEP: "13083970", Street: "Av. Albert Einstein", Number: "1251",
			Neighborhood: "Cidade Universitária", City: "Campinas", State: "SP",
		},
		products: []seedProduct{
			{
				name:        "Bolo de Chocolate",
				price:       "89.90",
				description: "Delicioso bolo de chocolate com cobertura de brigadeiro",
				images:      []string{"products/bolo-chocolate-1.jpg", "products/bolo-chocolate-2.jpg"},
			},
			{
				name:        "Torta de Morango",
				price:       "79.90",
				description: "Torta de morango com creme de baunilha",
				images:      []string{"products/torta-morango-1.jpg"},
			},
		},
	},
	{
		name:      "Confeitaria Paulista",
		latitude:  -23.561534,
		longitude: -46.655124,
		phone:     "(11) 99999-2222",
		address: models.Address{
			CEP: "01310200", Street: "Av. Paulista", Number: "1374",
			Neighborhood: "Bela Vista", City: "São Paulo", State: "SP",
		},
		products: []seedProduct{
			{
				name:        "Brigadeiros Gourmet",
				price:       "45.00",
				description: "Caixa com 12 brigadeiros gourmet",
				images:      []string{"products/brigadeiros-1.jpg"},
			},
			{
				name:        "Cheesecake",
				price:       "95.00",
				description: "Cheesecake de frutas vermelhas",
				images:      []string{"products/cheesecake-1.jpg"},
			},
		},
	},
	{
		name:      "Doces Cariocas",
		latitude:  -22.951916,
		longitude: -43.184590,
		phone:     "(21) 99999-3333",
		address: models.Address{
			CEP: "22250040", Street: "Rua Voluntários da Pátria", Number: "190",
			Neighborhood: "Botafogo", City: "Rio de Janeiro", State: "RJ",
		},
		products: []seedProduct{
			{
				name:        "Pudim de Leite",
				price:       "35.00",
				description: "Tradicional pudim de leite condensado",
				images:      []string{"products/pudim-1.jpg"},
			},
			{
				name:        "Quindim",
				price:       "40.00",
				description: "Bandeja com 20 quindins",
				images:      []string{"products/quindim-1.jpg"},
			},
		},
	},
}

// SeedInitialData inserts the demo marketplace. It does nothing when any
// confectionery already exists.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	var count int64
	if err := db.Model(&models.Confectionery{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count confectioneries: %w", err)
	}
	if count > 0 {
		logrus.WithField("confectioneries", count).Info("Database already seeded, skipping")
		return nil
	}

	err := WithTransaction(db, func(tx *gorm.DB) error {
		for _, seed := range mockConfectioneries {
			if err := seedOne(tx, seed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func seedOne(tx *gorm.DB, seed seedConfectionery) error {
	address := seed.address
	if err := tx.Create(&address).Error; err != nil {
		return fmt.Errorf("failed to create address for %s: %w", seed.name, err)
	}

	lat, lon := seed.latitude, seed.longitude
	confectionery := &models.Confectionery{
		Name:      seed.name,
		Latitude:  &lat,
		Longitude: &lon,
		Phone:     seed.phone,
		AddressID: address.ID,
	}
	if err := tx.Omit(clause.Associations).Create(confectionery).Error; err != nil {
		return fmt.Errorf("failed to create confectionery %s: %w", seed.name, err)
	}

	for _, sp := range seed.products {
		description := sp.description
		product := &models.Product{
			Name:            sp.name,
			Price:           decimal.RequireFromString(sp.price),
			Description:     &description,
			ConfectioneryID: confectionery.ID,
		}
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", sp.name, err)
		}

		if len(sp.images) == 0 {
			continue
		}
		images := make([]models.ProductImage, 0, len(sp.images))
		for _, path := range sp.images {
			images = append(images, models.ProductImage{ProductID: product.ID, ImagePath: path})
		}
		if err := tx.Create(&images).Error; err != nil {
			return fmt.Errorf("failed to create images for %s: %w", sp.name, err)
		}
	}

	return nil
}
