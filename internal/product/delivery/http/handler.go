package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/micro-marketplace/internal/product/domain"
	"github.com/tair/micro-marketplace/internal/product/usecase/command"
	"github.com/tair/micro-marketplace/internal/product/usecase/query"
	"github.com/tair/micro-marketplace/kafka"
	"github.com/tair/micro-marketplace/pkg/logger"
)

// ProductHandler handles HTTP requests for the product service
type ProductHandler struct {
	createHandler    *command.CreateProductHandler
	toggleHandler    *command.ToggleFavoriteHandler
	listHandler      *query.ListProductsHandler
	getHandler       *query.GetProductHandler
	favoritesHandler *query.GetUserFavoritesHandler

	repo      domain.ProductRepository
	publisher *kafka.Publisher
}

// Metrics are process-wide; register them once so constructing a second
// handler (tests) does not panic on duplicate registration.
var (
	metricsOnce    sync.Once
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
	totalProducts  prometheus.Gauge
)

func registerMetrics() {
	metricsOnce.Do(func() {
		requestCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_service_requests_total",
				Help: "Total number of requests to product service",
			},
			[]string{"method", "endpoint", "status"},
		)

		requestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_service_request_duration_seconds",
				Help:    "Duration of product service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		)

		requestSummary = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "product_service_request_duration_summary",
				Help: "Summary of request durations with percentiles",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.01,
					0.99: 0.001,
				},
				MaxAge: 10 * time.Minute,
			},
			[]string{"method", "endpoint"},
		)

		totalProducts = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "product_service_total_products",
				Help: "Total number of products in the catalog",
			},
		)

		prometheus.MustRegister(requestCounter)
		prometheus.MustRegister(requestLatency)
		prometheus.MustRegister(requestSummary)
		prometheus.MustRegister(totalProducts)
	})
}

// NewProductHandler creates a new product handler (manual DI)
func NewProductHandler(
	repo domain.ProductRepository,
	favorites domain.FavoriteRepository,
	owners query.OwnerLookup,
	publisher *kafka.Publisher,
) *ProductHandler {
	return newProductHandler(
		command.NewCreateProductHandler(repo),
		command.NewToggleFavoriteHandler(repo, favorites),
		query.NewListProductsHandler(repo),
		query.NewGetProductHandler(repo, owners),
		query.NewGetUserFavoritesHandler(repo, favorites),
		repo,
		publisher,
	)
}

// NewProductHandlerWithDI creates a new product handler for Wire
func NewProductHandlerWithDI(
	createHandler *command.CreateProductHandler,
	toggleHandler *command.ToggleFavoriteHandler,
	listHandler *query.ListProductsHandler,
	getHandler *query.GetProductHandler,
	favoritesHandler *query.GetUserFavoritesHandler,
	repo domain.ProductRepository,
	publisher *kafka.Publisher,
) *ProductHandler {
	return newProductHandler(
		createHandler, toggleHandler,
		listHandler, getHandler, favoritesHandler,
		repo, publisher,
	)
}

func newProductHandler(
	createHandler *command.CreateProductHandler,
	toggleHandler *command.ToggleFavoriteHandler,
	listHandler *query.ListProductsHandler,
	getHandler *query.GetProductHandler,
	favoritesHandler *query.GetUserFavoritesHandler,
	repo domain.ProductRepository,
	publisher *kafka.Publisher,
) *ProductHandler {
	registerMetrics()

	return &ProductHandler{
		createHandler:    createHandler,
		toggleHandler:    toggleHandler,
		listHandler:      listHandler,
		getHandler:       getHandler,
		favoritesHandler: favoritesHandler,
		repo:             repo,
		publisher:        publisher,
	}
}

// Response is the JSON envelope for every product service reply
type Response struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    interface{}        `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *ProductHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

// RegisterRoutes attaches all product routes to the router
func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	// Public routes
	router.HandleFunc("/products", h.metricsMiddleware("/products", h.ListProducts)).Methods("GET")
	router.HandleFunc("/products/{id:[0-9]+}", h.metricsMiddleware("/products/{id}", h.GetProduct)).Methods("GET")

	// Authenticated routes
	router.HandleFunc("/products", h.metricsMiddleware("/products", AuthMiddleware(h.CreateProduct))).Methods("POST")
	router.HandleFunc("/products/{id:[0-9]+}/favorite", h.metricsMiddleware("/products/{id}/favorite", AuthMiddleware(h.ToggleFavorite))).Methods("POST")

	// Consumed by the user service when assembling /auth/me
	router.HandleFunc("/users/{id:[0-9]+}/favorites", h.metricsMiddleware("/users/{id}/favorites", h.GetUserFavorites)).Methods("GET")
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	verr := &domain.ValidationError{}
	page := parsePositiveInt(params.Get("page"), "page", verr)
	limit := parsePositiveInt(params.Get("limit"), "limit", verr)
	if verr.HasErrors() {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid pagination parameters",
			Fields:  verr.Fields,
		})
		return
	}

	q := query.ListProductsQuery{
		Search: params.Get("search"),
		Page:   page,
		Limit:  limit,
	}

	result, err := h.listHandler.Handle(r.Context(), q)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid pagination parameters",
				Fields:  vErr.Fields,
			})
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to list products")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list products",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	product, err := h.getHandler.Handle(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			respondJSON(w, http.StatusNotFound, Response{
				Success: false,
				Error:   "Product not found",
			})
			return
		}
		logger.Error(r.Context()).Err(err).Uint("product_id", id).Msg("Failed to get product")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get product",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    product,
	})
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "User ID not found in context",
		})
		return
	}

	var req struct {
		Title       string  `json:"title"`
		Price       float64 `json:"price"`
		Description string  `json:"description"`
		Image       string  `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	cmd := command.CreateProductCommand{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		OwnerID:     userID,
	}

	product, err := h.createHandler.Handle(cmd)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Validation failed",
				Fields:  vErr.Fields,
			})
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to create product",
		})
		return
	}

	if h.publisher != nil {
		event := kafka.ProductCreatedEvent{
			ProductID: product.ID,
			OwnerID:   product.OwnerID,
			Title:     product.Title,
			Price:     product.Price,
		}
		if err := h.publisher.PublishProductCreated(r.Context(), event); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Failed to publish product created event")
		}
	}

	h.updateProductsMetric()

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// ToggleFavorite handles POST /products/{id}/favorite
func (h *ProductHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "User ID not found in context",
		})
		return
	}

	id, err := parseID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	result, err := h.toggleHandler.Handle(command.ToggleFavoriteCommand{
		UserID:    userID,
		ProductID: id,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			respondJSON(w, http.StatusNotFound, Response{
				Success: false,
				Error:   "Product not found",
			})
		case errors.Is(err, domain.ErrDuplicateFavorite):
			respondJSON(w, http.StatusConflict, Response{
				Success: false,
				Error:   "Favorite changed concurrently, please retry",
			})
		default:
			logger.Error(r.Context()).Err(err).
				Uint("user_id", userID).
				Uint("product_id", id).
				Msg("Failed to toggle favorite")
			respondJSON(w, http.StatusInternalServerError, Response{
				Success: false,
				Error:   "Failed to toggle favorite",
			})
		}
		return
	}

	if h.publisher != nil {
		event := kafka.FavoriteToggledEvent{
			UserID:    userID,
			ProductID: id,
			Favorited: result.Favorited,
		}
		if err := h.publisher.PublishFavoriteToggled(r.Context(), event); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Failed to publish favorite toggled event")
		}
	}

	message := "Removed from favorites"
	if result.Favorited {
		message = "Added to favorites"
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    result,
	})
}

// GetUserFavorites handles GET /users/{id}/favorites
func (h *ProductHandler) GetUserFavorites(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid user ID",
		})
		return
	}

	favorites, err := h.favoritesHandler.Handle(id)
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("user_id", id).Msg("Failed to list favorites")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list favorites",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    favorites,
	})
}

// RegisterHealthCheck adds the health endpoint backed by a database ping
func (h *ProductHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}
		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Product service is healthy",
		})
	}).Methods("GET")
}

// updateProductsMetric refreshes the total products gauge
func (h *ProductHandler) updateProductsMetric() {
	if count, err := h.repo.Count(); err == nil {
		totalProducts.Set(float64(count))
	}
}

// parseID extracts the numeric {id} path variable
func parseID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parsePositiveInt parses an optional positive integer query parameter.
// Empty means "use the default"; anything non-numeric or non-positive is a
// field error, never a silent fallback.
func parsePositiveInt(raw, field string, verr *domain.ValidationError) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(field, "must be an integer")
		return 0
	}
	if value < 1 {
		verr.Add(field, "must be a positive integer")
		return 0
	}
	return value
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
