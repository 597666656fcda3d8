package product

import (
	"time"

	"github.com/lib/pq"
)

// Product is a catalog entry. Price is in cents.
type Product struct {
	ID          string         `json:"id" db:"product_id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	ImageURL    string         `json:"imageUrl" db:"image_url"`
	Price       int            `json:"price" db:"price"`
	Stock       int            `json:"stock" db:"stock"`
	Sizes       pq.StringArray `json:"sizes" db:"sizes"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
	Version     int            `json:"-" db:"version"`
}

type ProductNew struct {
	Name        string   `json:"name" validate:"required,notblank"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	Price       int      `json:"price" validate:"gte=0,lte=10000000"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Sizes       []string `json:"sizes" validate:"unique,dive,required"`
}

type ProductUp struct {
	Name        *string   `json:"name" validate:"omitempty,notblank"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl" validate:"omitempty,url"`
	Price       *int      `json:"price" validate:"omitempty,gte=0,lte=10000000"`
	Stock       *int      `json:"stock" validate:"omitempty,gte=0"`
	Sizes       *[]string `json:"sizes" validate:"omitempty,unique,dive,required"`
}

// HasSize reports whether size is a valid variant of p. Products without
// sizes only accept the empty size.
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
