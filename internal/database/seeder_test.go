package database

import (
	"context"
	"io"
	"testing"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdmin(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	st := memstore.New()
	ctx := context.Background()
	cfg := config.SeedConfig{AdminEmail: "Admin@Magnova.in", AdminPassword: "changeit", AdminName: "Admin", Organization: models.OrgMagnova}

	created, err := SeedAdmin(ctx, st, cfg, logger)
	require.NoError(t, err)
	assert.True(t, created)

	u, err := st.FindUserByEmail(ctx, "admin@magnova.in")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, auth.CheckPasswordHash("changeit", u.Password))

	created, err = SeedAdmin(ctx, st, cfg, logger)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSeedAdminNeedsPassword(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	_, err := SeedAdmin(context.Background(), memstore.New(), config.SeedConfig{AdminEmail: "a@b.c"}, logger)
	assert.Error(t, err)
}
