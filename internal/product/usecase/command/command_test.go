package command

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

type fakeProductRepo struct {
	products map[uint]domain.Product
	nextID   uint
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint]domain.Product), nextID: 1}
}

func (f *fakeProductRepo) Create(p *domain.Product) error {
	p.ID = f.nextID
	f.nextID++
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) FindByID(id uint) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) FindByIDs(ids []uint) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) Search(term string, limit, offset int) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) CountMatching(term string) (int64, error) {
	return int64(len(f.products)), nil
}

func (f *fakeProductRepo) FavoriteCounts(ids []uint) (map[uint]int64, error) {
	return map[uint]int64{}, nil
}

func (f *fakeProductRepo) Count() (int64, error) {
	return int64(len(f.products)), nil
}

// fakeFavoriteRepo simulates the unique constraint: failDuplicates injects
// one lost race per toggle attempt until drained.
type fakeFavoriteRepo struct {
	pairs          map[string]bool
	failDuplicates int
	toggleCalls    int
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{pairs: make(map[string]bool)}
}

func (f *fakeFavoriteRepo) key(userID, productID uint) string {
	return fmt.Sprintf("%d:%d", userID, productID)
}

func (f *fakeFavoriteRepo) Toggle(userID, productID uint) (bool, error) {
	f.toggleCalls++
	k := f.key(userID, productID)
	if f.pairs[k] {
		delete(f.pairs, k)
		return false, nil
	}
	if f.failDuplicates > 0 {
		f.failDuplicates--
		// The concurrent winner's row is now visible
		f.pairs[k] = true
		return false, domain.ErrDuplicateFavorite
	}
	f.pairs[k] = true
	return true, nil
}

func (f *fakeFavoriteRepo) ListProductIDs(userID uint) ([]uint, error) {
	return nil, nil
}

func (f *fakeFavoriteRepo) IsFavorite(userID, productID uint) (bool, error) {
	return f.pairs[f.key(userID, productID)], nil
}

func validCreateCommand() CreateProductCommand {
	return CreateProductCommand{
		Title:       "Vintage Camera",
		Price:       249.99,
		Description: "Fully working film camera",
		Image:       "https://example.com/camera.png",
		OwnerID:     1,
	}
}

func TestCreateProduct(t *testing.T) {
	repo := newFakeProductRepo()
	handler := NewCreateProductHandler(repo)

	product, err := handler.Handle(validCreateCommand())
	require.NoError(t, err)

	assert.NotZero(t, product.ID)
	assert.Equal(t, "Vintage Camera", product.Title)
	assert.Equal(t, uint(1), product.OwnerID)
	assert.False(t, product.CreatedAt.IsZero())

	stored, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Title, stored.Title)
}

func TestCreateProductValidation(t *testing.T) {
	repo := newFakeProductRepo()
	handler := NewCreateProductHandler(repo)

	tests := []struct {
		name   string
		mutate func(*CreateProductCommand)
		field  string
	}{
		{"short title", func(c *CreateProductCommand) { c.Title = "ab" }, "title"},
		{"zero price", func(c *CreateProductCommand) { c.Price = 0 }, "price"},
		{"negative price", func(c *CreateProductCommand) { c.Price = -5 }, "price"},
		{"missing image", func(c *CreateProductCommand) { c.Image = "" }, "image"},
		{"relative image url", func(c *CreateProductCommand) { c.Image = "not-a-url" }, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validCreateCommand()
			tt.mutate(&cmd)

			_, err := handler.Handle(cmd)
			require.Error(t, err)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)

			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a %s field error, got %v", tt.field, verr.Fields)
		})
	}

	// Nothing was created along the way
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateProductCollectsAllFieldErrors(t *testing.T) {
	handler := NewCreateProductHandler(newFakeProductRepo())

	_, err := handler.Handle(CreateProductCommand{OwnerID: 1})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestCreateProductRequiresOwner(t *testing.T) {
	handler := NewCreateProductHandler(newFakeProductRepo())

	cmd := validCreateCommand()
	cmd.OwnerID = 0
	_, err := handler.Handle(cmd)
	assert.Error(t, err)
}

func TestToggleFavoriteIdempotentCycle(t *testing.T) {
	repo := newFakeProductRepo()
	require.NoError(t, repo.Create(&domain.Product{Title: "Lamp", Price: 10, OwnerID: 1}))

	favorites := newFakeFavoriteRepo()
	handler := NewToggleFavoriteHandler(repo, favorites)

	result, err := handler.Handle(ToggleFavoriteCommand{UserID: 5, ProductID: 1})
	require.NoError(t, err)
	assert.True(t, result.Favorited)

	result, err = handler.Handle(ToggleFavoriteCommand{UserID: 5, ProductID: 1})
	require.NoError(t, err)
	assert.False(t, result.Favorited)

	// A full cycle leaves no membership behind
	isFav, err := favorites.IsFavorite(5, 1)
	require.NoError(t, err)
	assert.False(t, isFav)
}

func TestToggleFavoriteUnknownProduct(t *testing.T) {
	handler := NewToggleFavoriteHandler(newFakeProductRepo(), newFakeFavoriteRepo())

	_, err := handler.Handle(ToggleFavoriteCommand{UserID: 5, ProductID: 999})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestToggleFavoriteRetriesLostRace(t *testing.T) {
	repo := newFakeProductRepo()
	require.NoError(t, repo.Create(&domain.Product{Title: "Lamp", Price: 10, OwnerID: 1}))

	favorites := newFakeFavoriteRepo()
	favorites.failDuplicates = 1
	handler := NewToggleFavoriteHandler(repo, favorites)

	// The first attempt loses the race; the retry observes the winner's
	// row and removes it.
	result, err := handler.Handle(ToggleFavoriteCommand{UserID: 5, ProductID: 1})
	require.NoError(t, err)
	assert.False(t, result.Favorited)
	assert.Equal(t, 2, favorites.toggleCalls)
}

func TestToggleFavoriteRequiresUser(t *testing.T) {
	handler := NewToggleFavoriteHandler(newFakeProductRepo(), newFakeFavoriteRepo())

	_, err := handler.Handle(ToggleFavoriteCommand{UserID: 0, ProductID: 1})
	assert.Error(t, err)
}
