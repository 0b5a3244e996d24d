package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/micro-marketplace/internal/product/domain"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
	// caseInsensitive switches the substring filter from LIKE to ILIKE.
	// Substring matching is store-dependent by contract; this makes the
	// choice explicit instead of inheriting collation behavior.
	caseInsensitive bool
}

// NewGormProductRepository creates a new GORM product repository
func NewGormProductRepository(db *gorm.DB, caseInsensitive bool) *GormProductRepository {
	return &GormProductRepository{db: db, caseInsensitive: caseInsensitive}
}

// AutoMigrate runs database migrations for products and favorites
func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{}, &domain.Favorite{})
}

// Create inserts a new product
func (r *GormProductRepository) Create(product *domain.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID retrieves a product by ID
func (r *GormProductRepository) FindByID(id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindByIDs retrieves products for a set of IDs, newest first
func (r *GormProductRepository) FindByIDs(ids []uint) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var products []domain.Product
	err := r.db.Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// searchScope applies the substring filter over title and description
func (r *GormProductRepository) searchScope(term string) *gorm.DB {
	query := r.db.Model(&domain.Product{})
	if term == "" {
		return query
	}
	op := "LIKE"
	if r.caseInsensitive {
		op = "ILIKE"
	}
	pattern := "%" + term + "%"
	return query.Where(
		fmt.Sprintf("title %s ? OR description %s ?", op, op),
		pattern, pattern,
	)
}

// Search retrieves a page of matching products ordered by creation time
// descending; ties break on id descending so pagination stays deterministic.
func (r *GormProductRepository) Search(term string, limit, offset int) ([]domain.Product, error) {
	var products []domain.Product
	err := r.searchScope(term).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// CountMatching returns the number of products matching the filter,
// independent of the pagination window
func (r *GormProductRepository) CountMatching(term string) (int64, error) {
	var count int64
	if err := r.searchScope(term).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// FavoriteCounts returns the number of favorite rows per product
func (r *GormProductRepository) FavoriteCounts(productIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(productIDs))
	if len(productIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ProductID uint
		Total     int64
	}
	var rows []row
	err := r.db.Model(&domain.Favorite{}).
		Select("product_id, COUNT(*) AS total").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count favorites: %w", err)
	}

	for _, r := range rows {
		counts[r.ProductID] = r.Total
	}
	return counts, nil
}

// Count returns the total number of products
func (r *GormProductRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
