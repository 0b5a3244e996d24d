package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

var tracer = otel.Tracer("product-repository")

// TracedProductRepository wraps GormProductRepository with tracing for the
// hot read paths
type TracedProductRepository struct {
	*GormProductRepository
}

// NewTracedProductRepository creates a product repository with tracing
func NewTracedProductRepository(db *gorm.DB, caseInsensitive bool) *TracedProductRepository {
	return &TracedProductRepository{
		GormProductRepository: NewGormProductRepository(db, caseInsensitive),
	}
}

// SearchWithContext records a span around a catalog page fetch
func (r *TracedProductRepository) SearchWithContext(ctx context.Context, term string, limit, offset int) ([]domain.Product, error) {
	_, span := tracer.Start(ctx, "repository.Search",
		trace.WithAttributes(
			attribute.String("search.term", term),
			attribute.Int("search.limit", limit),
			attribute.Int("search.offset", offset),
		),
	)
	defer span.End()

	products, err := r.GormProductRepository.Search(term, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.results", len(products)))
	return products, nil
}

// FindByIDWithContext records a span around a product lookup
func (r *TracedProductRepository) FindByIDWithContext(ctx context.Context, id uint) (*domain.Product, error) {
	_, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
		),
	)
	defer span.End()

	product, err := r.GormProductRepository.FindByID(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("product.title", product.Title))
	return product, nil
}
