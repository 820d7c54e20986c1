package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"julianmorley.ca/con-plar/storefront/pkg/catalog"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const allProductsKey = "products:all"

// ProductCache caches the catalog as JSON: the full listing under
// products:all and each product under product:{id}.
type ProductCache struct {
	client *redisclient.Client
	ttl    time.Duration
}

var _ catalog.ProductCache = (*ProductCache)(nil)

func NewProductCache(client *redisclient.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, allProductsKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SetProducts stores the listing and every product in one pipeline.
func (c *ProductCache) SetProducts(ctx context.Context, products []models.Product) error {
	listJSON, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, allProductsKey, listJSON, c.ttl)
	for _, p := range products {
		productJSON, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal product %d: %w", p.ID, err)
		}
		pipe.Set(ctx, productKey(p.ID), productJSON, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for products: %w", err)
	}
	return nil
}

func (c *ProductCache) GetProduct(ctx context.Context, id int) (models.Product, error) {
	var product models.Product
	if err := c.get(ctx, productKey(id), &product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (c *ProductCache) SetProduct(ctx context.Context, product models.Product) error {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %d: %w", product.ID, err)
	}
	if err := c.client.Set(ctx, productKey(product.ID), productJSON, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *ProductCache) get(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return catalog.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}
