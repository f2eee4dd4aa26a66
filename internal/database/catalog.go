package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/techretail/retailbot/internal/domain"
)

const productSelect = `
        SELECT p.id, p.name, p.description, p.price, p.category_id,
               COALESCE(c.name, '') AS category_name,
               p.image_url, p.stock, p.created_at, p.updated_at
        FROM products p
        LEFT JOIN categories c ON c.id = p.category_id`

const faqSelect = `
        SELECT f.id, f.question, f.answer, f.category_id,
               COALESCE(fc.name, '') AS category_name
        FROM faqs f
        LEFT JOIN faq_categories fc ON fc.id = f.category_id`

// ListProducts returns a page of products ordered by id, plus the total match count.
func (s *sqlxStore) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error) {
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}
	page := filter.Page.normalized()

	var where []string
	var args []any
	if filter.CategoryID != nil {
		where = append(where, "p.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, "(p.name LIKE ? OR p.description LIKE ? OR c.name LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.InStock {
		where = append(where, "p.stock > 0")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products p LEFT JOIN categories c ON c.id = p.category_id` + clause
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products := []domain.Product{}
	query := productSelect + clause + " ORDER BY p.id LIMIT ? OFFSET ?"
	if err := s.db.SelectContext(ctx, &products, query, append(args, page.Limit, page.Offset)...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list products", "error", err)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// GetProduct loads one product by id.
func (s *sqlxStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := s.db.GetContext(ctx, &product, productSelect+" WHERE p.id = ?", id); err != nil {
		return nil, notFound(err, "product", id)
	}
	return &product, nil
}

// CreateCategory inserts a product category.
func (s *sqlxStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	if category == nil || strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: category name is required", domain.ErrValidation)
	}

	result, err := s.db.NamedExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (:name, :description)`, category)
	if err != nil {
		return fmt.Errorf("failed to create category %q: %w", category.Name, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		category.ID = id
	}
	return nil
}

// CreateProduct inserts a catalog product.
func (s *sqlxStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product == nil || strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}

	ts := now()
	product.CreatedAt = ts
	product.UpdatedAt = ts

	query := `
        INSERT INTO products (name, description, price, category_id, image_url, stock, created_at, updated_at)
        VALUES (:name, :description, :price, :category_id, :image_url, :stock, :created_at, :updated_at)`
	result, err := s.db.NamedExecContext(ctx, query, product)
	if err != nil {
		return fmt.Errorf("failed to create product %q: %w", product.Name, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		product.ID = id
	}
	return nil
}

// ListFAQs returns a page of FAQs ordered by id, plus the total count.
func (s *sqlxStore) ListFAQs(ctx context.Context, p Page) ([]domain.FAQ, int, error) {
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}
	page := p.normalized()

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM faqs`); err != nil {
		return nil, 0, fmt.Errorf("failed to count faqs: %w", err)
	}

	faqs := []domain.FAQ{}
	if err := s.db.SelectContext(ctx, &faqs, faqSelect+" ORDER BY f.id LIMIT ? OFFSET ?", page.Limit, page.Offset); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list faqs", "error", err)
		return nil, 0, fmt.Errorf("failed to list faqs: %w", err)
	}
	return faqs, total, nil
}

// CreateFAQCategory inserts an FAQ category.
func (s *sqlxStore) CreateFAQCategory(ctx context.Context, category *domain.FAQCategory) error {
	if category == nil || strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: faq category name is required", domain.ErrValidation)
	}

	result, err := s.db.NamedExecContext(ctx, `INSERT INTO faq_categories (name) VALUES (:name)`, category)
	if err != nil {
		return fmt.Errorf("failed to create faq category %q: %w", category.Name, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		category.ID = id
	}
	return nil
}

// CreateFAQ inserts a question/answer pair.
func (s *sqlxStore) CreateFAQ(ctx context.Context, faq *domain.FAQ) error {
	if faq == nil || strings.TrimSpace(faq.Question) == "" || strings.TrimSpace(faq.Answer) == "" {
		return fmt.Errorf("%w: faq question and answer are required", domain.ErrValidation)
	}

	result, err := s.db.NamedExecContext(ctx,
		`INSERT INTO faqs (question, answer, category_id) VALUES (:question, :answer, :category_id)`, faq)
	if err != nil {
		return fmt.Errorf("failed to create faq: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		faq.ID = id
	}
	return nil
}
