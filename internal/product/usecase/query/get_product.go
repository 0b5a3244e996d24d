package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/micro-marketplace/pkg/logger"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

// OwnerLookup resolves a product owner's public email. The user service
// fills this role over HTTP; tests use a stub.
type OwnerLookup interface {
	GetUserEmail(ctx context.Context, userID uint) (string, error)
}

// Owner is the public slice of a product's owning user
type Owner struct {
	Email string `json:"email"`
}

// ProductDetail is a product plus its owner's public email and favorite count
type ProductDetail struct {
	domain.Product
	Owner          *Owner `json:"owner,omitempty"`
	FavoritesCount int64  `json:"favorites_count"`
}

// ContextFinder is implemented by repositories that can record a trace span
// around the lookup
type ContextFinder interface {
	FindByIDWithContext(ctx context.Context, id uint) (*domain.Product, error)
}

// GetProductHandler handles single-product queries
type GetProductHandler struct {
	repo   domain.ProductRepository
	owners OwnerLookup
}

// NewGetProductHandler creates a new get product handler
func NewGetProductHandler(repo domain.ProductRepository, owners OwnerLookup) *GetProductHandler {
	return &GetProductHandler{repo: repo, owners: owners}
}

// Handle returns the full product including its owner's public email. Owner
// resolution is best-effort: the product is still returned when the user
// service cannot be reached.
func (h *GetProductHandler) Handle(ctx context.Context, id uint) (*ProductDetail, error) {
	if id == 0 {
		return nil, domain.ErrProductNotFound
	}

	var product *domain.Product
	var err error
	if cf, ok := h.repo.(ContextFinder); ok {
		product, err = cf.FindByIDWithContext(ctx, id)
	} else {
		product, err = h.repo.FindByID(id)
	}
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	counts, err := h.repo.FavoriteCounts([]uint{product.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite count: %w", err)
	}

	detail := &ProductDetail{
		Product:        *product,
		FavoritesCount: counts[product.ID],
	}

	if h.owners != nil {
		email, err := h.owners.GetUserEmail(ctx, product.OwnerID)
		if err != nil {
			logger.Warn(ctx).
				Err(err).
				Uint("owner_id", product.OwnerID).
				Uint("product_id", product.ID).
				Msg("Failed to resolve product owner")
		} else {
			detail.Owner = &Owner{Email: email}
		}
	}

	return detail, nil
}
