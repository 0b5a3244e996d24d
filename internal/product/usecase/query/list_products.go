package query

import (
	"context"
	"fmt"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

const (
	// DefaultPage is used when no page parameter is supplied
	DefaultPage = 1
	// DefaultLimit is used when no limit parameter is supplied
	DefaultLimit = 10
	// MaxLimit caps the page size a client may request
	MaxLimit = 100
)

// ListProductsQuery represents the query for a catalog page
type ListProductsQuery struct {
	Search string
	Page   int
	Limit  int
}

// ProductListItem is a product decorated with its favorite count
type ProductListItem struct {
	domain.Product
	FavoritesCount int64 `json:"favorites_count"`
}

// Pagination describes the window a page was cut from
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// ProductPage is a page of products plus its pagination envelope
type ProductPage struct {
	Data       []ProductListItem `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// ContextSearcher is implemented by repositories that can record a trace
// span around the page fetch
type ContextSearcher interface {
	SearchWithContext(ctx context.Context, term string, limit, offset int) ([]domain.Product, error)
}

// ListProductsHandler handles catalog page queries
type ListProductsHandler struct {
	repo domain.ProductRepository
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(repo domain.ProductRepository) *ListProductsHandler {
	return &ListProductsHandler{repo: repo}
}

// Handle executes the list products query. Page and limit must be positive;
// zero values are filled with defaults by the caller, anything else is a
// validation error rather than a silent fallback. The count and the page
// fetch are not transactionally coupled; a momentarily stale total is
// accepted.
func (h *ListProductsHandler) Handle(ctx context.Context, q ListProductsQuery) (*ProductPage, error) {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	verr := &domain.ValidationError{}
	if q.Page < 1 {
		verr.Add("page", "must be a positive integer")
	}
	if q.Limit < 1 {
		verr.Add("limit", "must be a positive integer")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	total, err := h.repo.CountMatching(q.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (q.Page - 1) * q.Limit

	var products []domain.Product
	if cs, ok := h.repo.(ContextSearcher); ok {
		products, err = cs.SearchWithContext(ctx, q.Search, q.Limit, offset)
	} else {
		products, err = h.repo.Search(q.Search, q.Limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	items, err := decorateWithFavoriteCounts(h.repo, products)
	if err != nil {
		return nil, err
	}

	totalPages := (total + int64(q.Limit) - 1) / int64(q.Limit)

	return &ProductPage{
		Data: items,
		Pagination: Pagination{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: totalPages,
		},
	}, nil
}

// decorateWithFavoriteCounts attaches favorite counts to a product slice
func decorateWithFavoriteCounts(repo domain.ProductRepository, products []domain.Product) ([]ProductListItem, error) {
	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	counts, err := repo.FavoriteCounts(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite counts: %w", err)
	}

	items := make([]ProductListItem, len(products))
	for i, p := range products {
		items[i] = ProductListItem{Product: p, FavoritesCount: counts[p.ID]}
	}
	return items, nil
}
