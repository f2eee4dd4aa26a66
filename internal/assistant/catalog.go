package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/techretail/retailbot/internal/backend"
	"github.com/techretail/retailbot/internal/domain"
	"github.com/techretail/retailbot/internal/logger"
)

// fetchTimeout bounds a shared backend fetch.
const fetchTimeout = 30 * time.Second

// Catalog caches the product list and the FAQs. Concurrent misses share one
// backend call. When a refresh fails the last good snapshot is served.
type Catalog struct {
	backend      Backend
	ttl          time.Duration
	productLimit int
	faqLimit     int
	logger       *slog.Logger
	now          func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	products   []domain.Product
	productsAt time.Time
	faqs       []domain.FAQ
	faqsAt     time.Time
}

// NewCatalog creates a catalog cache. A zero ttl disables caching but keeps
// the stale fallback.
func NewCatalog(b Backend, ttl time.Duration, productLimit, faqLimit int, log *slog.Logger) *Catalog {
	if log == nil {
		log = logger.Discard()
	}
	return &Catalog{
		backend:      b,
		ttl:          ttl,
		productLimit: productLimit,
		faqLimit:     faqLimit,
		logger:       log.With("component", "catalog"),
		now:          time.Now,
	}
}

func (c *Catalog) fresh(at time.Time) bool {
	return c.ttl > 0 && !at.IsZero() && c.now().Sub(at) < c.ttl
}

// Products returns the cached product list, fetching it when stale.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	products, at := c.products, c.productsAt
	c.mu.RUnlock()
	if c.fresh(at) {
		return products, nil
	}

	v, err, _ := c.group.Do("products", func() (any, error) {
		fetchCtx, cancel := c.fetchContext(ctx)
		defer cancel()
		return c.backend.ListProducts(fetchCtx, backend.ProductQuery{Limit: c.productLimit})
	})
	if err != nil {
		if products != nil {
			c.logger.WarnContext(ctx, "Serving stale product list", "age", c.now().Sub(at), "error", err)
			return products, nil
		}
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	products = v.([]domain.Product)
	c.mu.Lock()
	c.products, c.productsAt = products, c.now()
	c.mu.Unlock()
	return products, nil
}

// FAQs returns the cached FAQ list, fetching it when stale.
func (c *Catalog) FAQs(ctx context.Context) ([]domain.FAQ, error) {
	c.mu.RLock()
	faqs, at := c.faqs, c.faqsAt
	c.mu.RUnlock()
	if c.fresh(at) {
		return faqs, nil
	}

	v, err, _ := c.group.Do("faqs", func() (any, error) {
		fetchCtx, cancel := c.fetchContext(ctx)
		defer cancel()
		return c.backend.ListFAQs(fetchCtx, c.faqLimit)
	})
	if err != nil {
		if faqs != nil {
			c.logger.WarnContext(ctx, "Serving stale FAQ list", "age", c.now().Sub(at), "error", err)
			return faqs, nil
		}
		return nil, fmt.Errorf("failed to load faqs: %w", err)
	}

	faqs = v.([]domain.FAQ)
	c.mu.Lock()
	c.faqs, c.faqsAt = faqs, c.now()
	c.mu.Unlock()
	return faqs, nil
}

// fetchContext detaches a shared fetch from the caller that started it, so
// cancelling one waiter does not fail the others.
func (c *Catalog) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
}

// Invalidate marks the product list stale. Reservations call it after
// changing stock.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.productsAt = time.Time{}
	c.mu.Unlock()
}

// Refresh drops the cache timestamps and reloads both lists.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.productsAt, c.faqsAt = time.Time{}, time.Time{}
	c.mu.Unlock()

	if _, err := c.Products(ctx); err != nil {
		return err
	}
	if _, err := c.FAQs(ctx); err != nil {
		return err
	}
	return nil
}

// Categories lists the distinct categories of the cached products, by name.
func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var categories []domain.Category
	for _, p := range products {
		if p.CategoryID == nil || p.CategoryName == "" || seen[*p.CategoryID] {
			continue
		}
		seen[*p.CategoryID] = true
		categories = append(categories, domain.Category{ID: *p.CategoryID, Name: p.CategoryName})
	}
	// longer names first so "laptops gamer" wins over "laptops"
	sort.SliceStable(categories, func(i, j int) bool {
		return len(categories[i].Name) > len(categories[j].Name)
	})
	return categories, nil
}
