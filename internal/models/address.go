// internal/models/address.go
package models

import "fmt"

type Address struct {
	BaseModel
	CEP          string `json:"cep" gorm:"size:8;not null;index"`
	Street       string `json:"street" gorm:"size:255;not null"`
	Number       string `json:"number" gorm:"size:20;not null"`
	Neighborhood string `json:"neighborhood" gorm:"size:100;not null"`
	State        string `json:"state" gorm:"type:char(2);not null"`
	City         string `json:"city" gorm:"size:100;not null"`
}

// Format renders "Av. Paulista, 1374 - Bela Vista, São Paulo/SP, CEP: 01310200".
func (a *Address) Format() string {
	return fmt.Sprintf("%s, %s - %s, %s/%s, CEP: %s",
		a.Street, a.Number, a.Neighborhood, a.City, a.State, a.CEP)
}
