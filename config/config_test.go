package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, 168*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"Magnova"}, cfg.Organizations.POCreators)
	assert.Equal(t, 20, cfg.Sequence.MaxAttempts)
	assert.False(t, cfg.Procurement.RequireApprovedPO)
	assert.Equal(t, ProfileProduction, cfg.Server.Profile)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadConfig_JWTSecret(t *testing.T) {
	t.Run("required in production", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig(t.TempDir())
		assert.ErrorIs(t, err, ErrMissingJWTSecret)
	})

	t.Run("dev profile falls back", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("APP_PROFILE", ProfileDev)
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, devJWTSecret, cfg.JWT.Secret)
	})
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9000"
mongo:
  uri: mongodb://db:27017
  dbName: scm
procurement:
  requireApprovedPO: true
organizations:
  poCreators: [Magnova, Nova]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("MONGO_DBNAME", "from-env")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "from-env", cfg.Mongo.DBName)
	assert.True(t, cfg.Procurement.RequireApprovedPO)
	assert.Equal(t, []string{"Magnova", "Nova"}, cfg.Organizations.POCreators)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger(LogConfig{Level: "debug"}).GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger(LogConfig{Level: "nonsense"}).GetLevel())
}
