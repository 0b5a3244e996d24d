package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers the Swagger UI route
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// ListProducts godoc
// @Summary List products
// @Description Get a page of products, newest first, with optional substring search over title and description
// @Tags Products
// @Produce json
// @Param search query string false "Substring filter"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} object{success=bool,data=object{data=array,pagination=object}}
// @Failure 400 {object} object{success=bool,error=string,fields=array}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /products [get]
func (h *ProductHandler) ListProductsDoc() {}

// GetProduct godoc
// @Summary Get product by ID
// @Description Get one product including its owner's public email
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /products/{id} [get]
func (h *ProductHandler) GetProductDoc() {}

// CreateProduct godoc
// @Summary Create a product
// @Description Create a listing owned by the authenticated user
// @Tags Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{title=string,price=number,description=string,image=string} true "Product data"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,fields=array}
// @Failure 401 {object} object{error=string}
// @Router /products [post]
func (h *ProductHandler) CreateProductDoc() {}

// ToggleFavorite godoc
// @Summary Toggle a favorite
// @Description Flip favorite membership for the authenticated user and the product
// @Tags Favorites
// @Security BearerAuth
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} object{success=bool,message=string,data=object{favorited=bool}}
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /products/{id}/favorite [post]
func (h *ProductHandler) ToggleFavoriteDoc() {}

// GetUserFavorites godoc
// @Summary List a user's favorited products
// @Tags Favorites
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,data=array}
// @Router /users/{id}/favorites [get]
func (h *ProductHandler) GetUserFavoritesDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *ProductHandler) HealthCheckDoc() {}
