package cart

import (
	"context"
	"log/slog"

	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/pricing"
)

// Catalog is the read side of the product catalog the cart validates
// against.
type Catalog interface {
	FindProduct(ctx context.Context, id int) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type Service struct {
	store   Store
	catalog Catalog
	log     *slog.Logger
}

func NewService(store Store, catalog Catalog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, catalog: catalog, log: log}
}

func (s *Service) AddToCart(ctx context.Context, sessionID string, productID, qty int) ([]models.CartEntry, error) {
	if productID < 1 || qty < 1 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.catalog.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	entries, err := s.store.Add(ctx, sessionID, productID, qty)
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "cart item added", "session", sessionID, "product_id", productID, "qty", qty)
	return entries, nil
}

func (s *Service) RemoveFromCart(ctx context.Context, sessionID string, entryID int) ([]models.CartEntry, error) {
	entries, err := s.store.Remove(ctx, sessionID, entryID)
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "cart item removed", "session", sessionID, "entry_id", entryID)
	return entries, nil
}

// ListCart returns the session's entries priced against the current catalog.
func (s *Service) ListCart(ctx context.Context, sessionID string) (models.CartView, error) {
	entries, err := s.store.List(ctx, sessionID)
	if err != nil {
		return models.CartView{}, err
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return models.CartView{}, err
	}

	quote := pricing.Calculate(entries, models.IndexProducts(products))
	if quote.HasMissing() {
		s.log.WarnContext(ctx, "cart references unknown products", "session", sessionID, "product_ids", quote.Missing)
	}

	return models.CartView{
		Items:     entries,
		Total:     quote.Total,
		ItemCount: pricing.ItemCount(entries),
	}, nil
}

func (s *Service) Entries(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	return s.store.List(ctx, sessionID)
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}
