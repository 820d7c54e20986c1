package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type orderDoc struct {
	OrderID       string    `bson:"order_id"`
	CustomerName  string    `bson:"customer_name"`
	CustomerEmail string    `bson:"customer_email"`
	Total         float64   `bson:"total"`
	Status        string    `bson:"status"`
	CreatedAt     time.Time `bson:"created_at"`
}

type orderItemDoc struct {
	OrderID     string  `bson:"order_id"`
	ProductID   int     `bson:"product_id"`
	ProductName string  `bson:"product_name"`
	Quantity    int     `bson:"quantity"`
	Price       float64 `bson:"price"`
	Subtotal    float64 `bson:"subtotal"`
}

type orderWithItemsDoc struct {
	Order orderDoc       `bson:",inline"`
	Items []orderItemDoc `bson:"items"`
}

// OrderLedger is append-only storage for orders and their line items.
type OrderLedger struct {
	client       *mongo.Client
	orders       *mongo.Collection
	items        *mongo.Collection
	transactions bool
}

// NewOrderLedger builds a ledger. With transactions enabled the order and its
// items commit together; this needs a replica set or sharded cluster.
func NewOrderLedger(db *mongo.Database, transactions bool) *OrderLedger {
	return &OrderLedger{
		client:       db.Client(),
		orders:       db.Collection(ordersCollection),
		items:        db.Collection(orderItemsCollection),
		transactions: transactions,
	}
}

func (l *OrderLedger) Record(ctx context.Context, order models.Order, items []models.OrderLineItem) error {
	if !l.transactions {
		return l.insert(ctx, order, items)
	}

	session, err := l.client.StartSession()
	if err != nil {
		return global.Storage("Failed to save order", fmt.Errorf("start session: %w", err))
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, l.insert(ctx, order, items)
	})
	var appErr *global.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	default:
		return global.Storage("Failed to save order", err)
	}
}

func (l *OrderLedger) insert(ctx context.Context, order models.Order, items []models.OrderLineItem) error {
	if _, err := l.orders.InsertOne(ctx, orderDoc{
		OrderID:       order.OrderID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total.InexactFloat64(),
		Status:        order.Status,
		CreatedAt:     order.CreatedAt,
	}); err != nil {
		return global.Storage("Failed to save order", err)
	}

	if len(items) == 0 {
		return nil
	}

	docs := make([]orderItemDoc, 0, len(items))
	for _, item := range items {
		docs = append(docs, orderItemDoc{
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice.InexactFloat64(),
			Subtotal:    item.Subtotal.InexactFloat64(),
		})
	}
	if _, err := l.items.InsertMany(ctx, docs); err != nil {
		return global.Storage("Failed to save order items", err)
	}
	return nil
}

// ListOrders returns orders newest first, each with a one-line summary of its
// items.
func (l *OrderLedger) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: orderItemsCollection},
			{Key: "localField", Value: "order_id"},
			{Key: "foreignField", Value: "order_id"},
			{Key: "as", Value: "items"},
		}}},
	}

	cursor, err := l.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, global.Storage("Failed to get orders", err)
	}
	defer cursor.Close(ctx)

	var docs []orderWithItemsDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, global.Storage("Failed to get orders", err)
	}

	summaries := make([]models.OrderSummary, 0, len(docs))
	for _, d := range docs {
		lines := make([]models.OrderLineItem, 0, len(d.Items))
		for _, item := range d.Items {
			lines = append(lines, models.OrderLineItem{ProductName: item.ProductName, Quantity: item.Quantity})
		}
		summaries = append(summaries, models.OrderSummary{
			OrderID:       d.Order.OrderID,
			CustomerName:  d.Order.CustomerName,
			CustomerEmail: d.Order.CustomerEmail,
			Total:         decimal.NewFromFloat(d.Order.Total),
			Status:        d.Order.Status,
			CreatedAt:     d.Order.CreatedAt.UTC(),
			Items:         models.SummarizeItems(lines),
		})
	}
	return summaries, nil
}

// LineItems returns the stored items of one order.
func (l *OrderLedger) LineItems(ctx context.Context, orderID string) ([]models.OrderLineItem, error) {
	cursor, err := l.items.Find(ctx, bson.D{{Key: "order_id", Value: orderID}})
	if err != nil {
		return nil, global.Storage("Failed to get order items", err)
	}
	defer cursor.Close(ctx)

	var docs []orderItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, global.Storage("Failed to get order items", err)
	}

	items := make([]models.OrderLineItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, models.OrderLineItem{
			OrderID:     d.OrderID,
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   decimal.NewFromFloat(d.Price),
			Subtotal:    decimal.NewFromFloat(d.Subtotal),
		})
	}
	return items, nil
}
