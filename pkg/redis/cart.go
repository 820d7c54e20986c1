package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const maxCartTxRetries = 5

// CartStore keeps one JSON document per session under cart:{sessionID}.
// Mutations use WATCH/MULTI so concurrent writers to the same cart retry
// instead of overwriting each other.
type CartStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

var _ cart.Store = (*CartStore)(nil)

func NewCartStore(client *redisclient.Client, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func (s *CartStore) Add(ctx context.Context, sessionID string, productID, qty int) ([]models.CartEntry, error) {
	c, err := s.mutate(ctx, sessionID, func(c *models.Cart) error {
		if _, ok := c.Add(productID, qty); !ok {
			return cart.ErrInvalidQuantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

func (s *CartStore) Remove(ctx context.Context, sessionID string, entryID int) ([]models.CartEntry, error) {
	c, err := s.mutate(ctx, sessionID, func(c *models.Cart) error {
		if !c.Remove(entryID) {
			return cart.ErrCartEntryNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

func (s *CartStore) List(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	c, err := load(ctx, s.client, sessionID)
	if err != nil {
		return nil, global.Storage("Failed to load cart", err)
	}
	return c.Snapshot(), nil
}

func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return global.Storage("Failed to clear cart", err)
	}
	return nil
}

func (s *CartStore) mutate(ctx context.Context, sessionID string, fn func(*models.Cart) error) (*models.Cart, error) {
	key := cartKey(sessionID)
	var updated *models.Cart

	txf := func(tx *redisclient.Tx) error {
		c, err := load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}

		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal cart failed: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redisclient.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			updated = c
		}
		return err
	}

	for i := 0; i < maxCartTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redisclient.TxFailedErr):
			continue
		case errors.Is(err, cart.ErrCartEntryNotFound), errors.Is(err, cart.ErrInvalidQuantity):
			return nil, err
		default:
			return nil, global.Storage("Failed to update cart", err)
		}
	}
	return nil, global.Storage("Failed to update cart", redisclient.TxFailedErr)
}

type getter interface {
	Get(ctx context.Context, key string) *redisclient.StringCmd
}

func load(ctx context.Context, cmd getter, sessionID string) (*models.Cart, error) {
	data, err := cmd.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return models.NewCart(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var c models.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if c.Entries == nil {
		c.Entries = []models.CartEntry{}
	}
	return &c, nil
}
