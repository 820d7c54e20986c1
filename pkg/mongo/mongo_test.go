package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type storeSuite struct {
	suite.Suite

	container *mongodb.MongoDBContainer
	db        *mongo.Database
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB container tests in short mode")
	}
	suite.Run(t, new(storeSuite))
}

func (s *storeSuite) SetupSuite() {
	ctx := s.T().Context()

	container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	s.Require().NoError(err)
	s.container = container

	uri, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	s.db, err = Connect(ctx, uri, "storefront_test")
	s.Require().NoError(err)

	s.Require().NoError(EnsureCollections(ctx, s.db))
	s.Require().NoError(EnsureIndexes(ctx, s.db))
}

func (s *storeSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Client().Disconnect(context.Background())
	}
	if s.container != nil {
		if err := s.container.Terminate(context.Background()); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

func (s *storeSuite) TearDownTest() {
	ctx := context.Background()
	for _, name := range []string{productsCollection, ordersCollection, orderItemsCollection} {
		_, err := s.db.Collection(name).DeleteMany(ctx, bson.D{})
		s.Require().NoError(err)
	}
}

func (s *storeSuite) TestSeedIfEmptyIsIdempotent() {
	ctx := s.T().Context()
	store := NewProductStore(s.db)

	seeded, err := store.SeedIfEmpty(ctx, models.StarterProducts())
	s.Require().NoError(err)
	s.True(seeded)

	seeded, err = store.SeedIfEmpty(ctx, models.StarterProducts())
	s.Require().NoError(err)
	s.False(seeded)

	products, err := store.ListProducts(ctx)
	s.Require().NoError(err)
	s.Len(products, 8)
	s.Equal(1, products[0].ID)
	s.Equal("79.99", products[0].Price.String())
}

func (s *storeSuite) TestFindProduct() {
	ctx := s.T().Context()
	store := NewProductStore(s.db)
	_, err := store.SeedIfEmpty(ctx, models.StarterProducts())
	s.Require().NoError(err)

	p, err := store.FindProduct(ctx, 6)
	s.Require().NoError(err)
	s.Equal("Bluetooth Speaker", p.Name)
	s.Equal("Audio", p.Category)

	_, err = store.FindProduct(ctx, 600)
	s.ErrorIs(err, models.ErrProductNotFound)
}

func (s *storeSuite) TestRecordAndListOrders() {
	for _, transactions := range []bool{true, false} {
		s.Run(map[bool]string{true: "transactional", false: "sequential"}[transactions], func() {
			defer s.TearDownTest()
			ctx := s.T().Context()
			ledger := NewOrderLedger(s.db, transactions)

			older := s.order(time.Now().Add(-time.Hour))
			newer := s.order(time.Now())

			s.Require().NoError(ledger.Record(ctx, older, []models.OrderLineItem{
				s.item(older.OrderID, "Phone Case", 1, "19.99"),
			}))
			s.Require().NoError(ledger.Record(ctx, newer, []models.OrderLineItem{
				s.item(newer.OrderID, "Smart Watch", 2, "199.99"),
				s.item(newer.OrderID, "USB-C Cable", 1, "12.99"),
			}))

			summaries, err := ledger.ListOrders(ctx)
			s.Require().NoError(err)
			s.Require().Len(summaries, 2)

			s.Equal(newer.OrderID, summaries[0].OrderID)
			s.Equal("Smart Watch x2, USB-C Cable x1", summaries[0].Items)
			s.Equal(models.OrderStatusCompleted, summaries[0].Status)
			s.Equal(older.OrderID, summaries[1].OrderID)
			s.Equal("Phone Case x1", summaries[1].Items)

			items, err := ledger.LineItems(ctx, newer.OrderID)
			s.Require().NoError(err)
			s.Len(items, 2)
			s.Equal("399.98", items[0].Subtotal.String())
		})
	}
}

func (s *storeSuite) TestRecordRollsBackOnDuplicateOrderID() {
	ctx := s.T().Context()
	ledger := NewOrderLedger(s.db, true)

	order := s.order(time.Now())
	s.Require().NoError(ledger.Record(ctx, order, []models.OrderLineItem{s.item(order.OrderID, "Phone Stand", 1, "24.99")}))

	err := ledger.Record(ctx, order, []models.OrderLineItem{s.item(order.OrderID, "Phone Stand", 1, "24.99")})
	s.Require().Error(err)

	items, err := ledger.LineItems(ctx, order.OrderID)
	s.Require().NoError(err)
	s.Len(items, 1, "a rejected order must not leave line items behind")
}

func (s *storeSuite) order(createdAt time.Time) models.Order {
	return models.Order{
		OrderID:       models.GenerateOrderID(createdAt),
		CustomerName:  gofakeit.Name(),
		CustomerEmail: gofakeit.Email(),
		Total:         decimal.RequireFromString("42.00"),
		Status:        models.OrderStatusCompleted,
		CreatedAt:     createdAt.UTC().Truncate(time.Millisecond),
	}
}

func (s *storeSuite) item(orderID, name string, qty int, price string) models.OrderLineItem {
	unit := decimal.RequireFromString(price)
	return models.OrderLineItem{
		OrderID:     orderID,
		ProductID:   gofakeit.Number(1, 8),
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unit,
		Subtotal:    unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}
