// Package catalog serves product reads, fronting the product store with an
// optional cache.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

var ErrCacheMiss = errors.New("cache miss")

// storeTimeout bounds a store read shared by several callers. It runs
// detached from any one caller's cancellation.
const storeTimeout = 10 * time.Second

type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	FindProduct(ctx context.Context, id int) (models.Product, error)
}

// ProductCache returns ErrCacheMiss when a key is absent.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	SetProducts(ctx context.Context, products []models.Product) error
	GetProduct(ctx context.Context, id int) (models.Product, error)
	SetProduct(ctx context.Context, product models.Product) error
}

type Service struct {
	store ProductStore
	cache ProductCache
	log   *slog.Logger
	sfg   singleflight.Group // collapses concurrent misses on the same key
}

// NewService builds a catalog service. cache may be nil.
func NewService(store ProductStore, cache ProductCache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, cache: cache, log: log}
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		products, err := s.cache.GetProducts(ctx)
		if err == nil {
			return products, nil
		}
		s.logCacheError(ctx, "get products", err)
	}

	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		ctx, cancel := shared(ctx)
		defer cancel()

		products, err := s.store.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetProducts(ctx, products); err != nil {
				s.logCacheError(ctx, "set products", err)
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Product), nil
}

func (s *Service) FindProduct(ctx context.Context, id int) (models.Product, error) {
	if s.cache != nil {
		product, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return product, nil
		}
		s.logCacheError(ctx, "get product", err)
	}

	v, err, _ := s.sfg.Do("product:"+strconv.Itoa(id), func() (interface{}, error) {
		ctx, cancel := shared(ctx)
		defer cancel()

		product, err := s.store.FindProduct(ctx, id)
		if err != nil {
			return models.Product{}, err
		}
		if s.cache != nil {
			if err := s.cache.SetProduct(ctx, product); err != nil {
				s.logCacheError(ctx, "set product", err)
			}
		}
		return product, nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return v.(models.Product), nil
}

// shared keeps the caller's values but not its deadline or cancellation.
func shared(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func (s *Service) logCacheError(ctx context.Context, op string, err error) {
	if errors.Is(err, ErrCacheMiss) {
		return
	}
	s.log.WarnContext(ctx, "product cache error", "op", op, "error", err)
}
