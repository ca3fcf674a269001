// internal/models/product_image.go
package models

type ProductImage struct {
	BaseModel
	ProductID uint   `json:"product_id" gorm:"not null;index"`
	ImagePath string `json:"image_path" gorm:"size:255;not null;uniqueIndex"`

	// URL is resolved by the image store when the row is returned to a client.
	URL string `json:"url" gorm:"-"`
}
