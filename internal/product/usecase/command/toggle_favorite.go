package command

import (
	"errors"
	"fmt"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

// ToggleFavoriteCommand represents the command to flip favorite membership
// for a (user, product) pair
type ToggleFavoriteCommand struct {
	UserID    uint
	ProductID uint
}

// ToggleFavoriteResult reports the membership state after the flip
type ToggleFavoriteResult struct {
	Favorited bool `json:"favorited"`
}

// ToggleFavoriteHandler handles the favorite toggle
type ToggleFavoriteHandler struct {
	products  domain.ProductRepository
	favorites domain.FavoriteRepository
}

// NewToggleFavoriteHandler creates a new toggle favorite handler
func NewToggleFavoriteHandler(products domain.ProductRepository, favorites domain.FavoriteRepository) *ToggleFavoriteHandler {
	return &ToggleFavoriteHandler{products: products, favorites: favorites}
}

// Handle verifies the product exists and flips favorite membership. A lost
// race against a concurrent create surfaces as ErrDuplicateFavorite from the
// repository; the read-then-decide is retried once, which then observes the
// winner's row and removes it. A second conflict is surfaced to the caller.
func (h *ToggleFavoriteHandler) Handle(cmd ToggleFavoriteCommand) (*ToggleFavoriteResult, error) {
	if cmd.UserID == 0 {
		return nil, fmt.Errorf("user is required")
	}

	if _, err := h.products.FindByID(cmd.ProductID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	favorited, err := h.favorites.Toggle(cmd.UserID, cmd.ProductID)
	if errors.Is(err, domain.ErrDuplicateFavorite) {
		favorited, err = h.favorites.Toggle(cmd.UserID, cmd.ProductID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	return &ToggleFavoriteResult{Favorited: favorited}, nil
}
