package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/micro-marketplace/internal/product/domain"
	"github.com/tair/micro-marketplace/pkg/auth"
)

type memProductRepo struct {
	products []domain.Product
	nextID   uint
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{nextID: 1}
}

func (m *memProductRepo) Create(p *domain.Product) error {
	p.ID = m.nextID
	m.nextID++
	m.products = append(m.products, *p)
	return nil
}

func (m *memProductRepo) FindByID(id uint) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *memProductRepo) FindByIDs(ids []uint) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, err := m.FindByID(id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProductRepo) matching(term string) []domain.Product {
	if term == "" {
		return m.products
	}
	var out []domain.Product
	lower := strings.ToLower(term)
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Title), lower) ||
			strings.Contains(strings.ToLower(p.Description), lower) {
			out = append(out, p)
		}
	}
	return out
}

func (m *memProductRepo) Search(term string, limit, offset int) ([]domain.Product, error) {
	matched := m.matching(term)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m *memProductRepo) CountMatching(term string) (int64, error) {
	return int64(len(m.matching(term))), nil
}

func (m *memProductRepo) FavoriteCounts(ids []uint) (map[uint]int64, error) {
	return map[uint]int64{}, nil
}

func (m *memProductRepo) Count() (int64, error) {
	return int64(len(m.products)), nil
}

type memFavoriteRepo struct {
	pairs map[string]bool
}

func newMemFavoriteRepo() *memFavoriteRepo {
	return &memFavoriteRepo{pairs: make(map[string]bool)}
}

func (m *memFavoriteRepo) Toggle(userID, productID uint) (bool, error) {
	k := fmt.Sprintf("%d:%d", userID, productID)
	if m.pairs[k] {
		delete(m.pairs, k)
		return false, nil
	}
	m.pairs[k] = true
	return true, nil
}

func (m *memFavoriteRepo) ListProductIDs(userID uint) ([]uint, error) {
	return nil, nil
}

func (m *memFavoriteRepo) IsFavorite(userID, productID uint) (bool, error) {
	return m.pairs[fmt.Sprintf("%d:%d", userID, productID)], nil
}

type stubOwners struct{}

func (stubOwners) GetUserEmail(ctx context.Context, userID uint) (string, error) {
	return "owner@example.com", nil
}

func newTestRouter(repo *memProductRepo, favorites *memFavoriteRepo) *mux.Router {
	handler := NewProductHandler(repo, favorites, stubOwners{}, nil)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func seedProducts(t *testing.T, repo *memProductRepo, n int) {
	t.Helper()
	now := time.Now()
	for i := 1; i <= n; i++ {
		err := repo.Create(&domain.Product{
			Title:       fmt.Sprintf("Product %d", i),
			Price:       float64(i * 10),
			Description: fmt.Sprintf("Description %d", i),
			Image:       "https://example.com/p.png",
			OwnerID:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			t.Fatalf("seed product %d: %v", i, err)
		}
	}
}

func doRequest(router *mux.Router, method, target, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestListProductsEndpoint(t *testing.T) {
	repo := newMemProductRepo()
	seedProducts(t, repo, 12)
	router := newTestRouter(repo, newMemFavoriteRepo())

	rec := doRequest(router, "GET", "/products", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("expected success envelope")
	}

	raw, _ := json.Marshal(resp.Data)
	var page struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Total      int64 `json:"total"`
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			TotalPages int64 `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}

	if len(page.Data) != 10 {
		t.Errorf("expected 10 items on default page, got %d", len(page.Data))
	}
	if page.Pagination.Total != 12 || page.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}
}

func TestListProductsRejectsBadPagination(t *testing.T) {
	router := newTestRouter(newMemProductRepo(), newMemFavoriteRepo())

	for _, target := range []string{
		"/products?page=abc",
		"/products?limit=0",
		"/products?page=-2",
	} {
		rec := doRequest(router, "GET", target, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if len(resp.Fields) == 0 {
			t.Errorf("%s: expected field errors in response", target)
		}
	}
}

func TestGetProductEndpointNotFound(t *testing.T) {
	router := newTestRouter(newMemProductRepo(), newMemFavoriteRepo())

	rec := doRequest(router, "GET", "/products/999999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetProductEndpointIncludesOwner(t *testing.T) {
	repo := newMemProductRepo()
	seedProducts(t, repo, 1)
	router := newTestRouter(repo, newMemFavoriteRepo())

	rec := doRequest(router, "GET", "/products/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	raw, _ := json.Marshal(resp.Data)
	var detail struct {
		Title string `json:"title"`
		Owner *struct {
			Email string `json:"email"`
		} `json:"owner"`
	}
	if err := json.Unmarshal(raw, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Owner == nil || detail.Owner.Email != "owner@example.com" {
		t.Errorf("expected owner email in detail, got %+v", detail.Owner)
	}
}

func TestCreateProductRequiresAuth(t *testing.T) {
	router := newTestRouter(newMemProductRepo(), newMemFavoriteRepo())

	body := []byte(`{"title":"Lamp","price":10,"image":"https://example.com/l.png"}`)
	rec := doRequest(router, "POST", "/products", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doRequest(router, "POST", "/products", "not-a-valid-token", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	repo := newMemProductRepo()
	router := newTestRouter(repo, newMemFavoriteRepo())

	token, err := auth.GenerateToken(42, "seller@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	body := []byte(`{"title":"Desk Lamp","price":35.5,"description":"warm light","image":"https://example.com/lamp.png"}`)
	rec := doRequest(router, "POST", "/products", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := repo.FindByID(1)
	if err != nil {
		t.Fatalf("product was not stored: %v", err)
	}
	if stored.OwnerID != 42 {
		t.Errorf("expected owner from token (42), got %d", stored.OwnerID)
	}
}

func TestCreateProductEndpointValidation(t *testing.T) {
	router := newTestRouter(newMemProductRepo(), newMemFavoriteRepo())

	token, err := auth.GenerateToken(42, "seller@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	body := []byte(`{"title":"ab","price":-1,"image":""}`)
	rec := doRequest(router, "POST", "/products", token, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if len(resp.Fields) != 3 {
		t.Errorf("expected 3 field errors, got %+v", resp.Fields)
	}
}

func TestToggleFavoriteEndpoint(t *testing.T) {
	repo := newMemProductRepo()
	seedProducts(t, repo, 1)
	router := newTestRouter(repo, newMemFavoriteRepo())

	token, err := auth.GenerateToken(7, "fan@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rec := doRequest(router, "POST", "/products/1/favorite", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Message != "Added to favorites" {
		t.Errorf("unexpected message: %q", resp.Message)
	}

	rec = doRequest(router, "POST", "/products/1/favorite", token, nil)
	resp = decodeResponse(t, rec)
	if resp.Message != "Removed from favorites" {
		t.Errorf("unexpected message after second toggle: %q", resp.Message)
	}

	// Unknown product
	rec = doRequest(router, "POST", "/products/555/favorite", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", rec.Code)
	}

	// No token
	rec = doRequest(router, "POST", "/products/1/favorite", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}
