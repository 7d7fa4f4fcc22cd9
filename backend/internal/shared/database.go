// ============================================================================
// backend/internal/shared/database.go
// MongoDB connection and query helpers
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig(uri, database string) *MongoConfig {
	return &MongoConfig{
		URI:            uri,
		Database:       database,
		ConnectTimeout: 20 * time.Second,
		MaxPoolSize:    50,
		MinPoolSize:    5,
		MaxIdleTime:    30 * time.Second,
	}
}

// ConnectMongoDB establishes a connection and verifies it with a ping
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout).
		SetSocketTimeout(30 * time.Second).
		SetHeartbeatInterval(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(config.Database), nil
}

// DisconnectMongoDB gracefully closes the MongoDB connection
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// ============================================================================
// Query Helpers
// ============================================================================

// BuildFindOptions creates find options for an offset page sorted on one field
func BuildFindOptions(page Page, sortField string, sortOrder int) *options.FindOptions {
	opts := options.Find()

	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
		opts.SetSkip(int64(page.Skip()))
	}

	if sortField != "" {
		// _id breaks ties so equal sort keys page deterministically
		opts.SetSort(bson.D{{Key: sortField, Value: sortOrder}, {Key: "_id", Value: 1}})
	}

	return opts
}

// CountDocumentsWithTimeout counts documents with timeout
func CountDocumentsWithTimeout(ctx context.Context, col *mongo.Collection, filter bson.M, timeout time.Duration) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	count, err := col.CountDocuments(queryCtx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return count, nil
}

// FindOneWithTimeout finds a single document with timeout
func FindOneWithTimeout(ctx context.Context, col *mongo.Collection, filter bson.M, result interface{}, timeout time.Duration) error {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return col.FindOne(queryCtx, filter).Decode(result)
}

// ============================================================================
// Transaction Helpers
// ============================================================================

// WithTransaction executes a function within a MongoDB transaction
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})

	return err
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID returns a new random identifier
func GenerateID() string {
	return uuid.NewString()
}
