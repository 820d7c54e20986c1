package mongo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type productDoc struct {
	ID       int     `bson:"id"`
	Name     string  `bson:"name"`
	Price    float64 `bson:"price"`
	Image    string  `bson:"image"`
	Category string  `bson:"category"`
}

func toProductDoc(p models.Product) productDoc {
	return productDoc{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price.InexactFloat64(),
		Image:    p.Image,
		Category: p.Category,
	}
}

func (d productDoc) toModel() models.Product {
	return models.Product{
		ID:       d.ID,
		Name:     d.Name,
		Price:    decimal.NewFromFloat(d.Price),
		Image:    d.Image,
		Category: d.Category,
	}
}

type ProductStore struct {
	collection *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{collection: db.Collection(productsCollection)}
}

// ListProducts returns every product ordered by id.
func (s *ProductStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, global.Storage("Failed to get products", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, global.Storage("Failed to get products", err)
	}

	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

func (s *ProductStore) FindProduct(ctx context.Context, id int) (models.Product, error) {
	var doc productDoc
	err := s.collection.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, models.ErrProductNotFound
		}
		return models.Product{}, global.Storage("Failed to fetch product", err)
	}
	return doc.toModel(), nil
}

// SeedIfEmpty inserts products only when the collection has none, so
// repeated startups never duplicate the catalog. It reports whether it
// inserted anything.
func (s *ProductStore) SeedIfEmpty(ctx context.Context, products []models.Product) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return false, global.Storage("Failed to count products", err)
	}
	if count > 0 || len(products) == 0 {
		return false, nil
	}

	docs := make([]productDoc, 0, len(products))
	for _, p := range products {
		docs = append(docs, toProductDoc(p))
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		// Another instance seeded between the count and the insert; the
		// unique index on id rejected our copy.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, global.Storage("Failed to seed products", err)
	}
	return true, nil
}
