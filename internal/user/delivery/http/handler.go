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

	"github.com/tair/micro-marketplace/internal/user/domain"
	"github.com/tair/micro-marketplace/internal/user/usecase/command"
	"github.com/tair/micro-marketplace/internal/user/usecase/query"
	"github.com/tair/micro-marketplace/pkg/logger"
)

// UserHandler handles HTTP requests for the user service
type UserHandler struct {
	registerHandler *command.RegisterUserHandler
	loginHandler    *command.LoginUserHandler
	profileHandler  *query.GetProfileHandler

	repo domain.UserRepository
}

// Metrics are process-wide; register them once so constructing a second
// handler (tests) does not panic on duplicate registration.
var (
	metricsOnce    sync.Once
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	totalUsers     prometheus.Gauge
)

func registerMetrics() {
	metricsOnce.Do(func() {
		requestCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_service_requests_total",
				Help: "Total number of requests to user service",
			},
			[]string{"method", "endpoint", "status"},
		)

		requestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "user_service_request_duration_seconds",
				Help:    "Duration of user service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		)

		totalUsers = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "user_service_total_users",
				Help: "Number of registered users",
			},
		)

		prometheus.MustRegister(requestCounter)
		prometheus.MustRegister(requestLatency)
		prometheus.MustRegister(totalUsers)
	})
}

// NewUserHandler creates a new user handler (manual DI)
func NewUserHandler(repo domain.UserRepository, favorites query.FavoritesLookup) *UserHandler {
	return NewUserHandlerWithDI(
		command.NewRegisterUserHandler(repo),
		command.NewLoginUserHandler(repo),
		query.NewGetProfileHandler(repo, favorites),
		repo,
	)
}

// NewUserHandlerWithDI creates a new user handler for Wire
func NewUserHandlerWithDI(
	registerHandler *command.RegisterUserHandler,
	loginHandler *command.LoginUserHandler,
	profileHandler *query.GetProfileHandler,
	repo domain.UserRepository,
) *UserHandler {
	registerMetrics()

	return &UserHandler{
		registerHandler: registerHandler,
		loginHandler:    loginHandler,
		profileHandler:  profileHandler,
		repo:            repo,
	}
}

// Response is the JSON envelope for every user service reply
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
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
func (h *UserHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// RegisterRoutes attaches all user routes to the router
func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.metricsMiddleware("/auth/register", h.Register)).Methods("POST")
	router.HandleFunc("/auth/login", h.metricsMiddleware("/auth/login", h.Login)).Methods("POST")
	router.HandleFunc("/auth/me", h.metricsMiddleware("/auth/me", AuthMiddleware(h.GetProfile))).Methods("GET")

	// Public profile slice, consumed by the product service for owner email
	router.HandleFunc("/users/{id:[0-9]+}", h.metricsMiddleware("/users/{id}", h.GetUser)).Methods("GET")
}

// Register handles POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	user, err := h.registerHandler.Handle(command.RegisterUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.updateUsersMetric()

	h.respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "User registered successfully",
		Data:    user,
	})
}

// Login handles POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	response, err := h.loginHandler.Handle(command.LoginUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// GetProfile handles GET /auth/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uint)
	if !ok {
		h.respondJSON(w, http.StatusUnauthorized, Response{
			Success: false,
			Error:   "User ID not found in context",
		})
		return
	}

	profile, err := h.profileHandler.Handle(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			h.respondJSON(w, http.StatusNotFound, Response{
				Success: false,
				Error:   "User not found",
			})
			return
		}
		logger.Error(r.Context()).Err(err).Uint("user_id", userID).Msg("Failed to load profile")
		h.respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load profile",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    profile,
	})
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid user ID",
		})
		return
	}

	user, err := h.repo.FindByID(uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			h.respondJSON(w, http.StatusNotFound, Response{
				Success: false,
				Error:   "User not found",
			})
			return
		}
		logger.Error(r.Context()).Err(err).Uint64("user_id", id).Msg("Failed to load user")
		h.respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to load user",
		})
		return
	}

	// Only the public slice leaves the service
	h.respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// RegisterHealthCheck adds the health endpoint backed by a database ping
func (h *UserHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			h.respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Database unavailable",
			})
			return
		}
		h.respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "User service is healthy",
		})
	}).Methods("GET")
}

// updateUsersMetric refreshes the registered users gauge
func (h *UserHandler) updateUsersMetric() {
	if count, err := h.repo.Count(); err == nil {
		totalUsers.Set(float64(count))
	}
}

func (h *UserHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
