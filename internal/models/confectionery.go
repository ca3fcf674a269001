// internal/models/confectionery.go
package models

import "encoding/json"

const AddressNotRegistered = "Endereço não cadastrado"

type Confectionery struct {
	BaseModel
	Name      string   `json:"name" gorm:"size:255;not null"`
	Latitude  *float64 `json:"latitude" gorm:"type:decimal(10,8)"`
	Longitude *float64 `json:"longitude" gorm:"type:decimal(11,8)"`
	Phone     string   `json:"phone" gorm:"size:20;not null"`
	AddressID uint     `json:"address_id" gorm:"not null;index"`

	// Relationships
	Address  *Address  `json:"address,omitempty" gorm:"foreignKey:AddressID;constraint:OnDelete:CASCADE"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:ConfectioneryID;constraint:OnDelete:CASCADE"`
}

func (c *Confectionery) HasMap() bool {
	return c.Latitude != nil && c.Longitude != nil
}

func (c *Confectionery) FullAddress() string {
	if c.Address == nil {
		return AddressNotRegistered
	}
	return c.Address.Format()
}

func (c Confectionery) MarshalJSON() ([]byte, error) {
	type plain Confectionery
	return json.Marshal(struct {
		plain
		FullAddress string `json:"full_address"`
	}{
		plain:       plain(c),
		FullAddress: c.FullAddress(),
	})
}
