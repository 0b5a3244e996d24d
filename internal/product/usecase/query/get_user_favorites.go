package query

import (
	"fmt"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

// GetUserFavoritesHandler returns the products a user has favorited
type GetUserFavoritesHandler struct {
	products  domain.ProductRepository
	favorites domain.FavoriteRepository
}

// NewGetUserFavoritesHandler creates a new favorites listing handler
func NewGetUserFavoritesHandler(products domain.ProductRepository, favorites domain.FavoriteRepository) *GetUserFavoritesHandler {
	return &GetUserFavoritesHandler{products: products, favorites: favorites}
}

// Handle lists a user's favorited products with their favorite counts
func (h *GetUserFavoritesHandler) Handle(userID uint) ([]ProductListItem, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user is required")
	}

	ids, err := h.favorites.ListProductIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	products, err := h.products.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorited products: %w", err)
	}

	return decorateWithFavoriteCounts(h.products, products)
}
