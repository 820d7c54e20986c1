package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Products are addressed by their numeric id; unique so concurrent seeding
	// cannot duplicate the catalog.
	{
		CollectionName: productsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_product_id_unique"),
		},
	},
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_order_id_unique"),
		},
	},
	// Newest-first listing.
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_order_created_at"),
		},
	},
	// $lookup from orders joins on order_id.
	{
		CollectionName: orderItemsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetName("idx_order_item_order_id"),
		},
	},
}

// EnsureIndexes creates every required index. Creating an index that already
// exists with the same definition is a no-op in MongoDB.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, cfg := range requiredIndexes {
		if _, err := db.Collection(cfg.CollectionName).Indexes().CreateOne(ctx, cfg.IndexModel); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", cfg.CollectionName, err)
		}
	}
	return nil
}

// EnsureCollections creates the collections up front. Multi-document
// transactions cannot create collections on older servers, so the order
// collections must exist before the first checkout.
func EnsureCollections(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for _, name := range []string{productsCollection, ordersCollection, orderItemsCollection} {
		if have[name] {
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}
