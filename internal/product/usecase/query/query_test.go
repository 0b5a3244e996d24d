package query

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

type fakeProductRepo struct {
	products []domain.Product
	counts   map[uint]int64
}

func (f *fakeProductRepo) Create(p *domain.Product) error {
	p.ID = uint(len(f.products) + 1)
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeProductRepo) FindByID(id uint) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeProductRepo) FindByIDs(ids []uint) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, err := f.FindByID(id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) matching(term string) []domain.Product {
	if term == "" {
		return f.products
	}
	var out []domain.Product
	lower := strings.ToLower(term)
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Title), lower) ||
			strings.Contains(strings.ToLower(p.Description), lower) {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeProductRepo) Search(term string, limit, offset int) ([]domain.Product, error) {
	matched := f.matching(term)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeProductRepo) CountMatching(term string) (int64, error) {
	return int64(len(f.matching(term))), nil
}

func (f *fakeProductRepo) FavoriteCounts(ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64)
	for _, id := range ids {
		if c, ok := f.counts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeProductRepo) Count() (int64, error) {
	return int64(len(f.products)), nil
}

type fakeFavoriteRepo struct {
	pairs map[string]bool
	order []uint
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{pairs: make(map[string]bool)}
}

func (f *fakeFavoriteRepo) key(userID, productID uint) string {
	return fmt.Sprintf("%d:%d", userID, productID)
}

func (f *fakeFavoriteRepo) Toggle(userID, productID uint) (bool, error) {
	k := f.key(userID, productID)
	if f.pairs[k] {
		delete(f.pairs, k)
		return false, nil
	}
	f.pairs[k] = true
	f.order = append(f.order, productID)
	return true, nil
}

func (f *fakeFavoriteRepo) ListProductIDs(userID uint) ([]uint, error) {
	var out []uint
	for _, id := range f.order {
		if f.pairs[f.key(userID, id)] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeFavoriteRepo) IsFavorite(userID, productID uint) (bool, error) {
	return f.pairs[f.key(userID, productID)], nil
}

type stubOwnerLookup struct {
	email string
	err   error
}

func (s *stubOwnerLookup) GetUserEmail(ctx context.Context, userID uint) (string, error) {
	return s.email, s.err
}

func seedRepo(n int) *fakeProductRepo {
	repo := &fakeProductRepo{counts: make(map[uint]int64)}
	base := time.Now()
	for i := 1; i <= n; i++ {
		repo.products = append(repo.products, domain.Product{
			ID:          uint(i),
			Title:       fmt.Sprintf("Product %d", i),
			Price:       float64(i * 100),
			Description: fmt.Sprintf("Description for product %d with gadget terms", i),
			Image:       fmt.Sprintf("https://example.com/%d.png", i),
			OwnerID:     1,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
			UpdatedAt:   base.Add(time.Duration(i) * time.Second),
		})
	}
	return repo
}

func TestListProductsDefaults(t *testing.T) {
	handler := NewListProductsHandler(seedRepo(25))

	page, err := handler.Handle(context.Background(), ListProductsQuery{})
	require.NoError(t, err)

	assert.Len(t, page.Data, DefaultLimit)
	assert.Equal(t, DefaultPage, page.Pagination.Page)
	assert.Equal(t, DefaultLimit, page.Pagination.Limit)
	assert.Equal(t, int64(25), page.Pagination.Total)
	assert.Equal(t, int64(3), page.Pagination.TotalPages)
}

func TestListProductsInvalidWindow(t *testing.T) {
	handler := NewListProductsHandler(seedRepo(5))

	for _, q := range []ListProductsQuery{
		{Page: -1},
		{Limit: -3},
		{Page: -1, Limit: -1},
	} {
		_, err := handler.Handle(context.Background(), q)
		require.Error(t, err)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasErrors())
	}
}

func TestListProductsLimitClamped(t *testing.T) {
	handler := NewListProductsHandler(seedRepo(3))

	page, err := handler.Handle(context.Background(), ListProductsQuery{Limit: 5000})
	require.NoError(t, err)

	assert.Equal(t, MaxLimit, page.Pagination.Limit)
	assert.Len(t, page.Data, 3)
}

func TestListProductsPagesCoverAllWithoutDuplicates(t *testing.T) {
	handler := NewListProductsHandler(seedRepo(23))

	seen := make(map[uint]bool)
	for p := 1; p <= 3; p++ {
		page, err := handler.Handle(context.Background(), ListProductsQuery{Page: p, Limit: 10})
		require.NoError(t, err)
		for _, item := range page.Data {
			assert.False(t, seen[item.ID], "product %d appeared on two pages", item.ID)
			seen[item.ID] = true
		}
	}
	assert.Len(t, seen, 23)

	// One past the last page is empty, not an error
	page, err := handler.Handle(context.Background(), ListProductsQuery{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(23), page.Pagination.Total)
}

func TestListProductsSearchFilters(t *testing.T) {
	repo := seedRepo(3)
	repo.products[1].Title = "Vintage Widget"
	repo.products[1].Description = "no matching terms here"
	handler := NewListProductsHandler(repo)

	page, err := handler.Handle(context.Background(), ListProductsQuery{Search: "widget"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Vintage Widget", page.Data[0].Title)
	assert.Equal(t, int64(1), page.Pagination.Total)

	page, err = handler.Handle(context.Background(), ListProductsQuery{Search: "gadget"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestListProductsFavoriteCounts(t *testing.T) {
	repo := seedRepo(2)
	repo.counts[1] = 7
	handler := NewListProductsHandler(repo)

	page, err := handler.Handle(context.Background(), ListProductsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)

	byID := make(map[uint]int64)
	for _, item := range page.Data {
		byID[item.ID] = item.FavoritesCount
	}
	assert.Equal(t, int64(7), byID[1])
	assert.Equal(t, int64(0), byID[2])
}

func TestGetProductNotFound(t *testing.T) {
	handler := NewGetProductHandler(seedRepo(1), nil)

	_, err := handler.Handle(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = handler.Handle(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProductIncludesOwnerEmail(t *testing.T) {
	repo := seedRepo(1)
	repo.counts[1] = 3
	handler := NewGetProductHandler(repo, &stubOwnerLookup{email: "alice@example.com"})

	detail, err := handler.Handle(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, "alice@example.com", detail.Owner.Email)
	assert.Equal(t, int64(3), detail.FavoritesCount)
}

func TestGetProductSurvivesOwnerLookupFailure(t *testing.T) {
	handler := NewGetProductHandler(seedRepo(1), &stubOwnerLookup{err: fmt.Errorf("connection refused")})

	detail, err := handler.Handle(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, detail.Owner)
	assert.Equal(t, "Product 1", detail.Title)
}

func TestGetUserFavorites(t *testing.T) {
	repo := seedRepo(3)
	favorites := newFakeFavoriteRepo()
	_, err := favorites.Toggle(7, 2)
	require.NoError(t, err)
	_, err = favorites.Toggle(7, 3)
	require.NoError(t, err)

	handler := NewGetUserFavoritesHandler(repo, favorites)

	items, err := handler.Handle(7)
	require.NoError(t, err)
	require.Len(t, items, 2)

	_, err = handler.Handle(0)
	assert.Error(t, err)
}
