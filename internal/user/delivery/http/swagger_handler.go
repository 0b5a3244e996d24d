package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers the Swagger UI route
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// Register godoc
// @Summary Register a new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /auth/register [post]
func (h *UserHandler) RegisterDoc() {}

// Login godoc
// @Summary Log in and receive a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{success=bool,data=object{token=string,user=object}}
// @Failure 401 {object} object{success=bool,error=string}
// @Router /auth/login [post]
func (h *UserHandler) LoginDoc() {}

// GetProfile godoc
// @Summary Get the authenticated user's profile
// @Description Profile includes the user's favorited products
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,data=object}
// @Failure 401 {object} object{error=string}
// @Router /auth/me [get]
func (h *UserHandler) GetProfileDoc() {}

// GetUser godoc
// @Summary Get a user's public profile
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,data=object{id=int,email=string}}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /users/{id} [get]
func (h *UserHandler) GetUserDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func (h *UserHandler) HealthCheckDoc() {}
