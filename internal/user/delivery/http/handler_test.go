package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/tair/micro-marketplace/internal/user/domain"
)

type memUserRepo struct {
	users  map[string]*domain.User
	nextID uint
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (m *memUserRepo) Create(user *domain.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.Email] = user
	return nil
}

func (m *memUserRepo) FindByID(id uint) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) FindByEmail(email string) (*domain.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) Count() (int64, error) {
	return int64(len(m.users)), nil
}

type stubFavorites struct{}

func (stubFavorites) GetUserFavorites(ctx context.Context, userID uint) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func newTestRouter() *mux.Router {
	handler := NewUserHandler(newMemUserRepo(), stubFavorites{})
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(router *mux.Router, method, target, token string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	router := newTestRouter()

	credentials := map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	}

	rec := doJSON(router, "POST", "/auth/register", "", credentials)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, "POST", "/auth/login", "", credentials)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var loginResp struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Data.Token == "" {
		t.Fatal("login response carries no token")
	}

	rec = doJSON(router, "GET", "/auth/me", loginResp.Data.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var profileResp struct {
		Data struct {
			User struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			} `json:"user"`
			Favorites json.RawMessage `json:"favorites"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&profileResp); err != nil {
		t.Fatalf("decode profile response: %v", err)
	}
	if profileResp.Data.User.Email != "alice@example.com" {
		t.Errorf("unexpected profile email %q", profileResp.Data.User.Email)
	}
	if profileResp.Data.User.Password != "" {
		t.Error("password hash leaked into profile response")
	}
}

func TestProfileRequiresToken(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(router, "GET", "/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router := newTestRouter()

	doJSON(router, "POST", "/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})

	rec := doJSON(router, "POST", "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetUserPublicSlice(t *testing.T) {
	router := newTestRouter()

	doJSON(router, "POST", "/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})

	rec := doJSON(router, "GET", "/users/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data["email"] != "alice@example.com" {
		t.Errorf("unexpected email %v", resp.Data["email"])
	}
	if _, leaked := resp.Data["password"]; leaked {
		t.Error("password leaked from public endpoint")
	}

	rec = doJSON(router, "GET", "/users/999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", rec.Code)
	}
}
