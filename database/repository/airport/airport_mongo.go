package airportRepo

import (
	"context"
	"fmt"

	"flightbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "airports"

// MongoAirportRepo serves airports from the "airports" collection.
type MongoAirportRepo struct {
	coll *mongo.Collection
}

func NewMongoAirportRepo(db *mongo.Database) *MongoAirportRepo {
	return &MongoAirportRepo{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the lookup index on the IATA code.
func (r *MongoAirportRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "iata", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create airport index: %w", err)
	}
	return nil
}

func (r *MongoAirportRepo) ListWithIATA(ctx context.Context) ([]models.Airport, error) {
	filter := bson.M{"iata": bson.M{"$nin": bson.A{nil, ""}}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find airports: %w", err)
	}
	defer cursor.Close(ctx)

	var airports []models.Airport
	if err := cursor.All(ctx, &airports); err != nil {
		return nil, fmt.Errorf("decode airports: %w", err)
	}
	return airports, nil
}
