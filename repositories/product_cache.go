package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"greenbasket/models"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedProductCatalog is a read-through redis cache in front of another
// catalog. Cache failures are logged and never fail a lookup.
type CachedProductCatalog struct {
	next   ProductCatalog
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ ProductCatalog = (*CachedProductCatalog)(nil)

func NewCachedProductCatalog(next ProductCatalog, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProductCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProductCatalog{next: next, client: client, ttl: ttl, logger: logger}
}

func getProductCacheKey(id int64) string {
	return fmt.Sprintf("greenbasket:product:%d", id)
}

func getProductListCacheKey(page, limit int) string {
	return fmt.Sprintf("greenbasket:products_list_p%d_l%d", page, limit)
}

type cachedProductPage struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

func (c *CachedProductCatalog) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	key := getProductCacheKey(id)

	var cached models.Product
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := c.next.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, p)
	return p, nil
}

func (c *CachedProductCatalog) GetAllProducts(ctx context.Context, page, limit int) ([]models.Product, int, error) {
	key := getProductListCacheKey(page, limit)

	var cached cachedProductPage
	if c.lookup(ctx, key, &cached) {
		return cached.Products, cached.Total, nil
	}

	products, total, err := c.next.GetAllProducts(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	c.store(ctx, key, cachedProductPage{Products: products, Total: total})
	return products, total, nil
}

func (c *CachedProductCatalog) lookup(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.logger.Warn("product cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedProductCatalog) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
}
