package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

const digestCollection = "daily_digests"

// Repository archives daily digests.
type Repository interface {
	SaveDailyDigest(ctx context.Context, digest models.DailyDigest) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// digestDocument keeps decimals as strings so no precision is lost.
type digestDocument struct {
	Day              string    `bson:"_id"`
	Date             time.Time `bson:"date"`
	Receptions       int       `bson:"receptions"`
	Audits           int       `bson:"audits"`
	Open             int       `bson:"open"`
	InTreatment      int       `bson:"in_treatment"`
	Resolved         int       `bson:"resolved"`
	NetDivergence    string    `bson:"net_divergence"`
	PendingBacklog   int       `bson:"pending_backlog"`
	LargestProduct   string    `bson:"largest_product,omitempty"`
	LargestDeviation string    `bson:"largest_deviation"`
	CreatedAt        time.Time `bson:"created_at"`
}

func newDigestDocument(d models.DailyDigest) digestDocument {
	return digestDocument{
		Day:              d.Date.Format("2006-01-02"),
		Date:             d.Date.UTC(),
		Receptions:       d.Receptions,
		Audits:           d.Audits,
		Open:             d.Open,
		InTreatment:      d.InTreatment,
		Resolved:         d.Resolved,
		NetDivergence:    d.NetDivergence.String(),
		PendingBacklog:   d.PendingBacklog,
		LargestProduct:   d.LargestProduct,
		LargestDeviation: d.LargestDeviation.String(),
		CreatedAt:        d.CreatedAt.UTC(),
	}
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: digestCollection,
	}, nil
}

// SaveDailyDigest upserts the digest of its day, so a rerun replaces the
// earlier snapshot.
func (r *MongoDBRepository) SaveDailyDigest(ctx context.Context, digest models.DailyDigest) error {
	doc := newDigestDocument(digest)
	collection := r.client.Database(r.dbName).Collection(r.collName)

	_, err := collection.ReplaceOne(ctx, bson.M{"_id": doc.Day}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save daily digest %s: %w", doc.Day, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
