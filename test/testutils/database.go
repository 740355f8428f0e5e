package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Port     string
}

// DefaultDatabaseConfig returns default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "mongo:7",
		Database: "fridgechef_test",
		Port:     "27017",
	}
}

// TestDatabase wraps a throwaway MongoDB container
type TestDatabase struct {
	Container testcontainers.Container
	Client    *mongo.Client
	DB        *mongo.Database
	URI       string
	t         *testing.T
}

// SetupTestDatabase creates a test database with default configuration
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig starts a MongoDB container and connects to it.
// The container is removed when the test finishes.
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        cfg.Image,
				ExposedPorts: []string{cfg.Port + "/tcp"},
				WaitingFor: wait.ForLog("Waiting for connections").
					WithStartupTimeout(60 * time.Second),
				Tmpfs: map[string]string{
					"/data/db": "rw",
				},
			},
			Started: true,
		})
	require.NoError(t, err, "Failed to start mongo container")

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, client.Ping(connectCtx, nil), "Failed to ping test database")

	testDB := &TestDatabase{
		Container: container,
		Client:    client,
		DB:        client.Database(cfg.Database),
		URI:       uri,
		t:         t,
	}

	t.Cleanup(testDB.Cleanup)
	return testDB
}

// Truncate empties the named collections
func (td *TestDatabase) Truncate(collections ...string) {
	ctx := context.Background()
	for _, name := range collections {
		_, err := td.DB.Collection(name).DeleteMany(ctx, map[string]interface{}{})
		require.NoError(td.t, err, "Failed to truncate %s", name)
	}
}

// Cleanup disconnects and terminates the container
func (td *TestDatabase) Cleanup() {
	ctx := context.Background()
	if td.Client != nil {
		_ = td.Client.Disconnect(ctx)
	}
	if td.Container != nil {
		if err := td.Container.Terminate(ctx); err != nil {
			td.t.Logf("Failed to terminate mongo container: %v", err)
		}
	}
}
