package command

import (
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

// CreateProductCommand represents the command to create a new listing
type CreateProductCommand struct {
	Title       string
	Price       float64
	Description string
	Image       string
	OwnerID     uint
}

// CreateProductHandler handles product creation
type CreateProductHandler struct {
	repo domain.ProductRepository
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository) *CreateProductHandler {
	return &CreateProductHandler{repo: repo}
}

// validate checks the payload and collects every failing field
func (h *CreateProductHandler) validate(cmd CreateProductCommand) *domain.ValidationError {
	verr := &domain.ValidationError{}

	if utf8.RuneCountInString(cmd.Title) < 3 {
		verr.Add("title", "must be at least 3 characters")
	}
	if cmd.Price <= 0 {
		verr.Add("price", "must be a positive number")
	}
	if cmd.Image == "" {
		verr.Add("image", "is required")
	} else if u, err := url.Parse(cmd.Image); err != nil || u.Scheme == "" || u.Host == "" {
		verr.Add("image", "must be a well-formed URL")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// Handle executes the create product command. The product is created in a
// single insert; a validation failure never creates anything.
func (h *CreateProductHandler) Handle(cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.OwnerID == 0 {
		return nil, fmt.Errorf("owner is required")
	}
	if verr := h.validate(cmd); verr != nil {
		return nil, verr
	}

	now := time.Now()
	product := &domain.Product{
		Title:       cmd.Title,
		Price:       cmd.Price,
		Description: cmd.Description,
		Image:       cmd.Image,
		OwnerID:     cmd.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.Create(product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}
