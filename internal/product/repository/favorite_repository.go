package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

// GormFavoriteRepository implements FavoriteRepository using GORM
type GormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository creates a new GORM favorite repository
func NewGormFavoriteRepository(db *gorm.DB) *GormFavoriteRepository {
	return &GormFavoriteRepository{db: db}
}

// Toggle flips favorite membership for a (user, product) pair inside a
// transaction. The composite unique index on favorites is the backstop: if
// a concurrent request creates the row between our read and our insert, the
// insert fails and ErrDuplicateFavorite is returned so the caller can retry
// the read-then-decide once on a fresh transaction.
func (r *GormFavoriteRepository) Toggle(userID, productID uint) (bool, error) {
	var favorited bool

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.Favorite
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).
			First(&existing).Error

		switch {
		case err == nil:
			if err := tx.Delete(&domain.Favorite{}, existing.ID).Error; err != nil {
				return fmt.Errorf("failed to delete favorite: %w", err)
			}
			favorited = false
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			favorite := domain.Favorite{
				UserID:    userID,
				ProductID: productID,
				CreatedAt: time.Now(),
			}
			if err := tx.Create(&favorite).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ErrDuplicateFavorite
				}
				return fmt.Errorf("failed to create favorite: %w", err)
			}
			favorited = true
			return nil

		default:
			return fmt.Errorf("failed to look up favorite: %w", err)
		}
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// ListProductIDs returns the IDs of products a user has favorited,
// most recently favorited first
func (r *GormFavoriteRepository) ListProductIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return ids, nil
}

// IsFavorite reports whether the user has favorited the product
func (r *GormFavoriteRepository) IsFavorite(userID, productID uint) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}
