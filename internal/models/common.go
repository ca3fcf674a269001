// internal/models/common.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Base model with common fields. Rows are hard deleted: removing a
// confectionery must take its address, products and images with it.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func init() {
	// prices are rendered as JSON numbers (89.9), not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Address{},
		&Confectionery{},
		&Product{},
		&ProductImage{},
	}
}
