package domain

import (
	"time"
)

// Product represents a marketplace listing
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	OwnerID     uint      `json:"owner_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// ProductRepository defines the contract for product data access.
// Search and CountMatching apply the same substring filter over title and
// description so a page and its total always agree on the match set.
type ProductRepository interface {
	Create(product *Product) error
	FindByID(id uint) (*Product, error)
	FindByIDs(ids []uint) ([]Product, error)
	Search(term string, limit, offset int) ([]Product, error)
	CountMatching(term string) (int64, error)
	FavoriteCounts(productIDs []uint) (map[uint]int64, error)
	Count() (int64, error)
}
