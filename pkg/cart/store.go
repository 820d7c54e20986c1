// Package cart holds per-session shopping carts.
package cart

import (
	"context"
	"sync"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// DefaultSession is the cart shared by callers that do not name a session.
const DefaultSession = "guest"

var (
	ErrInvalidQuantity   = global.Validation("Invalid productId or quantity")
	ErrCartEntryNotFound = global.NotFound("Cart item not found")
)

// Store persists carts keyed by session ID. Implementations apply each
// mutation atomically with respect to other calls on the same session.
type Store interface {
	Add(ctx context.Context, sessionID string, productID, qty int) ([]models.CartEntry, error)
	Remove(ctx context.Context, sessionID string, entryID int) ([]models.CartEntry, error)
	List(ctx context.Context, sessionID string) ([]models.CartEntry, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in process memory. Carts do not survive a restart.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*models.Cart)}
}

func (m *MemoryStore) cart(sessionID string) *models.Cart {
	c, ok := m.carts[sessionID]
	if !ok {
		c = models.NewCart(sessionID)
		m.carts[sessionID] = c
	}
	return c
}

func (m *MemoryStore) Add(_ context.Context, sessionID string, productID, qty int) ([]models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.cart(sessionID)
	if _, ok := c.Add(productID, qty); !ok {
		return nil, ErrInvalidQuantity
	}
	return c.Snapshot(), nil
}

func (m *MemoryStore) Remove(_ context.Context, sessionID string, entryID int) ([]models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[sessionID]
	if !ok || !c.Remove(entryID) {
		return nil, ErrCartEntryNotFound
	}
	return c.Snapshot(), nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string) ([]models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.carts[sessionID]; ok {
		return c.Snapshot(), nil
	}
	return []models.CartEntry{}, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, sessionID)
	return nil
}
