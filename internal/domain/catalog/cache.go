package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// lister is the slice of Repository the cache reads through.
type lister interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
}

// Cache holds name-indexed snapshots of the category and payment method
// catalogs. The bulk processor resolves classifier suggestions against it
// on every record, so lookups must not hit the database.
type Cache struct {
	repo   lister
	logger *slog.Logger

	mu             sync.RWMutex
	categories     map[string]Category
	paymentMethods map[string]PaymentMethod
	refreshedAt    time.Time
}

func NewCache(repo lister, logger *slog.Logger) *Cache {
	return &Cache{
		repo:           repo,
		logger:         logger,
		categories:     map[string]Category{},
		paymentMethods: map[string]PaymentMethod{},
	}
}

// Refresh reloads both catalogs. On error the previous snapshot stays in
// place.
func (c *Cache) Refresh(ctx context.Context) error {
	categories, err := c.repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	methods, err := c.repo.ListPaymentMethods(ctx)
	if err != nil {
		return err
	}

	catIdx := make(map[string]Category, len(categories))
	for _, cat := range categories {
		catIdx[strings.ToLower(cat.Name)] = cat
	}
	pmIdx := make(map[string]PaymentMethod, len(methods))
	for _, pm := range methods {
		pmIdx[strings.ToLower(pm.Name)] = pm
	}

	c.mu.Lock()
	c.categories = catIdx
	c.paymentMethods = pmIdx
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("catalog cache refreshed",
		slog.Int("categories", len(catIdx)),
		slog.Int("payment_methods", len(pmIdx)))
	return nil
}

// CategoryByName looks up a category by case-insensitive exact name.
func (c *Cache) CategoryByName(name string) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[strings.ToLower(name)]
	return cat, ok
}

// CategoryByContains returns the first category whose name contains the
// needle or is contained by it, case-insensitive. Map iteration order is
// unspecified; callers treat this as a best-effort last resort.
func (c *Cache) CategoryByContains(name string) (Category, bool) {
	needle := strings.ToLower(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for key, cat := range c.categories {
		if strings.Contains(key, needle) || strings.Contains(needle, key) {
			return cat, true
		}
	}
	return Category{}, false
}

// PaymentMethodByName looks up a payment method by case-insensitive exact
// name.
func (c *Cache) PaymentMethodByName(name string) (PaymentMethod, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pm, ok := c.paymentMethods[strings.ToLower(name)]
	return pm, ok
}

// PaymentMethodByContains mirrors CategoryByContains for payment methods.
func (c *Cache) PaymentMethodByContains(name string) (PaymentMethod, bool) {
	needle := strings.ToLower(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for key, pm := range c.paymentMethods {
		if strings.Contains(key, needle) || strings.Contains(needle, key) {
			return pm, true
		}
	}
	return PaymentMethod{}, false
}

// RefreshedAt reports when the snapshot was last reloaded.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}
