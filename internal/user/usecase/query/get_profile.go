package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tair/micro-marketplace/internal/user/domain"
	"github.com/tair/micro-marketplace/pkg/logger"
)

// FavoritesLookup lists the products a user has favorited. The product
// service fills this role over HTTP; tests use a stub.
type FavoritesLookup interface {
	GetUserFavorites(ctx context.Context, userID uint) (json.RawMessage, error)
}

// Profile is the authenticated user plus their favorited products
type Profile struct {
	User      *domain.User    `json:"user"`
	Favorites json.RawMessage `json:"favorites"`
}

// GetProfileHandler handles profile queries
type GetProfileHandler struct {
	repo      domain.UserRepository
	favorites FavoritesLookup
}

// NewGetProfileHandler creates a new get profile handler
func NewGetProfileHandler(repo domain.UserRepository, favorites FavoritesLookup) *GetProfileHandler {
	return &GetProfileHandler{repo: repo, favorites: favorites}
}

// Handle returns the user's profile. The favorites list comes from the
// product service and is best-effort: a failed lookup yields an empty list,
// not a failed profile.
func (h *GetProfileHandler) Handle(ctx context.Context, userID uint) (*Profile, error) {
	user, err := h.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	profile := &Profile{
		User:      user,
		Favorites: json.RawMessage("[]"),
	}

	if h.favorites != nil {
		favorites, err := h.favorites.GetUserFavorites(ctx, userID)
		if err != nil {
			logger.Warn(ctx).
				Err(err).
				Uint("user_id", userID).
				Msg("Failed to load favorites for profile")
		} else {
			profile.Favorites = favorites
		}
	}

	return profile, nil
}
