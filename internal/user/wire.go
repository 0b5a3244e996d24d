//go:build wireinject
// +build wireinject

package user

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/micro-marketplace/internal/user/client"
	"github.com/tair/micro-marketplace/internal/user/delivery/http"
	"github.com/tair/micro-marketplace/internal/user/domain"
	"github.com/tair/micro-marketplace/internal/user/repository"
	"github.com/tair/micro-marketplace/internal/user/usecase/command"
	"github.com/tair/micro-marketplace/internal/user/usecase/query"
)

// ProvideUserRepository provides the user repository
func ProvideUserRepository(db *gorm.DB) domain.UserRepository {
	return repository.NewGormUserRepository(db)
}

// ProvideFavoritesLookup provides the product service client
func ProvideFavoritesLookup(productServiceURL string) query.FavoritesLookup {
	return client.NewProductServiceClient(productServiceURL)
}

func ProvideRegisterUserHandler(repo domain.UserRepository) *command.RegisterUserHandler {
	return command.NewRegisterUserHandler(repo)
}

func ProvideLoginUserHandler(repo domain.UserRepository) *command.LoginUserHandler {
	return command.NewLoginUserHandler(repo)
}

func ProvideGetProfileHandler(repo domain.UserRepository, favorites query.FavoritesLookup) *query.GetProfileHandler {
	return query.NewGetProfileHandler(repo, favorites)
}

var HandlerSet = wire.NewSet(
	ProvideRegisterUserHandler,
	ProvideLoginUserHandler,
	ProvideGetProfileHandler,
)

// InitializeHTTPHandler initializes the HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, productServiceURL string) (*http.UserHandler, error) {
	wire.Build(
		ProvideUserRepository,
		ProvideFavoritesLookup,
		HandlerSet,
		http.NewUserHandlerWithDI,
	)
	return nil, nil
}
