//go:build wireinject
// +build wireinject

package product

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/micro-marketplace/internal/product/client"
	"github.com/tair/micro-marketplace/internal/product/delivery/http"
	"github.com/tair/micro-marketplace/internal/product/domain"
	"github.com/tair/micro-marketplace/internal/product/repository"
	"github.com/tair/micro-marketplace/internal/product/usecase/command"
	"github.com/tair/micro-marketplace/internal/product/usecase/query"
	"github.com/tair/micro-marketplace/kafka"
)

// ProvideProductRepository provides the product repository with tracing
func ProvideProductRepository(db *gorm.DB, caseInsensitive bool) domain.ProductRepository {
	return repository.NewTracedProductRepository(db, caseInsensitive)
}

// ProvideFavoriteRepository provides the favorite repository
func ProvideFavoriteRepository(db *gorm.DB) domain.FavoriteRepository {
	return repository.NewGormFavoriteRepository(db)
}

// ProvideOwnerLookup provides the user service client
func ProvideOwnerLookup(userServiceURL string) query.OwnerLookup {
	return client.NewUserServiceClient(userServiceURL)
}

func ProvideCreateProductHandler(repo domain.ProductRepository) *command.CreateProductHandler {
	return command.NewCreateProductHandler(repo)
}

func ProvideToggleFavoriteHandler(repo domain.ProductRepository, favorites domain.FavoriteRepository) *command.ToggleFavoriteHandler {
	return command.NewToggleFavoriteHandler(repo, favorites)
}

func ProvideListProductsHandler(repo domain.ProductRepository) *query.ListProductsHandler {
	return query.NewListProductsHandler(repo)
}

func ProvideGetProductHandler(repo domain.ProductRepository, owners query.OwnerLookup) *query.GetProductHandler {
	return query.NewGetProductHandler(repo, owners)
}

func ProvideGetUserFavoritesHandler(repo domain.ProductRepository, favorites domain.FavoriteRepository) *query.GetUserFavoritesHandler {
	return query.NewGetUserFavoritesHandler(repo, favorites)
}

var RepositorySet = wire.NewSet(
	ProvideProductRepository,
	ProvideFavoriteRepository,
)

var HandlerSet = wire.NewSet(
	ProvideCreateProductHandler,
	ProvideToggleFavoriteHandler,
	ProvideListProductsHandler,
	ProvideGetProductHandler,
	ProvideGetUserFavoritesHandler,
)

// InitializeHTTPHandler initializes the HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, caseInsensitive bool, userServiceURL string, publisher *kafka.Publisher) (*http.ProductHandler, error) {
	wire.Build(
		RepositorySet,
		ProvideOwnerLookup,
		HandlerSet,
		http.NewProductHandlerWithDI,
	)
	return nil, nil
}
