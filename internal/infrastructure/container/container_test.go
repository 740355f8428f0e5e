package container

import (
	"testing"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestModule_ShouldResolveDependencyGraph(t *testing.T) {
	err := fx.ValidateApp(Module(""))

	require.NoError(t, err)
}

func TestShutdownTimeout(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, 30*time.Second, shutdownTimeout(cfg))

	cfg.Server.ShutdownTimeout = 5 * time.Second
	assert.Equal(t, 5*time.Second, shutdownTimeout(cfg))
}
