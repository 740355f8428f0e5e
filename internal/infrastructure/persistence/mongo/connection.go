package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectionManager owns the MongoDB client and the collections the
// service reads and writes
type ConnectionManager struct {
	client      *mongo.Client
	db          *mongo.Database
	collections config.CollectionsConfig
	logger      *zap.Logger
}

// NewConnectionManager connects to MongoDB, pings the deployment and
// creates the indexes the repositories rely on
func NewConnectionManager(ctx context.Context, cfg config.MongoConfig, log *zap.Logger) (*ConnectionManager, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.URI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	cm := &ConnectionManager{
		client:      client,
		db:          client.Database(cfg.Database),
		collections: cfg.Collections,
		logger:      log.Named("mongo"),
	}

	if err := cm.Ping(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	if err := cm.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	cm.logger.Info("Connected to MongoDB", zap.String("database", cfg.Database))
	return cm, nil
}

// NewConnectionManagerFromClient wraps an already connected client
func NewConnectionManagerFromClient(client *mongo.Client, database string, collections config.CollectionsConfig, log *zap.Logger) *ConnectionManager {
	return &ConnectionManager{
		client:      client,
		db:          client.Database(database),
		collections: collections,
		logger:      log.Named("mongo"),
	}
}

// Ping runs the ping command against the selected database
func (cm *ConnectionManager) Ping(ctx context.Context) error {
	return cm.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// Recipes returns the recipes collection
func (cm *ConnectionManager) Recipes() *mongo.Collection {
	return cm.db.Collection(cm.collections.Recipes)
}

// Users returns the users collection
func (cm *ConnectionManager) Users() *mongo.Collection {
	return cm.db.Collection(cm.collections.Users)
}

// Sessions returns the sessions collection
func (cm *ConnectionManager) Sessions() *mongo.Collection {
	return cm.db.Collection(cm.collections.Sessions)
}

// EnsureIndexes creates the unique and lookup indexes. Creating an index
// that already exists with the same definition is a no-op.
func (cm *ConnectionManager) EnsureIndexes(ctx context.Context) error {
	recipeIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "spoonacularId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_recipe_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
	}
	if _, err := cm.Recipes().Indexes().CreateMany(ctx, recipeIndexes); err != nil {
		return fmt.Errorf("failed to create recipe indexes: %w", err)
	}

	_, err := cm.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("session_expiry"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("session_user"),
		},
	}
	if _, err := cm.Sessions().Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

// Close disconnects the client
func (cm *ConnectionManager) Close(ctx context.Context) error {
	cm.logger.Info("Disconnecting from MongoDB")
	return cm.client.Disconnect(ctx)
}
