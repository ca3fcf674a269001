// internal/models/product.go
package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name            string          `json:"name" gorm:"size:255;not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Description     *string         `json:"description" gorm:"type:text"`
	ConfectioneryID uint            `json:"confectionery_id" gorm:"not null;index"`

	// Relationships
	Confectionery *Confectionery `json:"confectionery,omitempty" gorm:"foreignKey:ConfectioneryID"`
	Images        []ProductImage `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// FormattedPrice renders the price in Brazilian reais: "R$ 1.234,56".
func (p *Product) FormattedPrice() string {
	return FormatBRL(p.Price)
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
	return json.Marshal(struct {
		plain
		FormattedPrice string `json:"formatted_price"`
	}{
		plain:          plain(p),
		FormattedPrice: p.FormattedPrice(),
	})
}

func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	whole, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	return "R$ " + sign + grouped.String() + "," + cents
}
