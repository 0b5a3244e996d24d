package domain

import "time"

// Favorite marks a product as favorited by a user. The composite unique
// index is the serialization point for concurrent toggles: at most one row
// may exist per (user_id, product_id) pair.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_product"`
	ProductID uint      `json:"product_id" gorm:"not null;index;uniqueIndex:idx_user_product"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Favorite) TableName() string {
	return "favorites"
}

// FavoriteRepository defines the contract for favorite data access.
// Toggle performs a single read-then-flip attempt inside a transaction and
// returns ErrDuplicateFavorite when a concurrent create wins the race.
type FavoriteRepository interface {
	Toggle(userID, productID uint) (favorited bool, err error)
	ListProductIDs(userID uint) ([]uint, error)
	IsFavorite(userID, productID uint) (bool, error)
}
