package auth

import (
	"testing"
	"time"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("S3cret", hash))
}

func TestTokens(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return issued }

	token, err := tokens.Issue("u-1", "a@magnova.in")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		claims, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.Subject)
		assert.Equal(t, "a@magnova.in", claims.Email)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("secret", time.Hour)
		later.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err := later.Verify(token)
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokens("other", time.Hour)
		other.now = tokens.now
		_, err := other.Verify(token)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := tokens.Verify("not.a.token")
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})
}

func TestPolicy(t *testing.T) {
	policy := NewPolicy(config.OrganizationsConfig{
		POCreators:    []string{models.OrgMagnova},
		SalesCreators: []string{models.OrgMagnova, models.OrgNova},
	})
	magnova := Principal{Organization: models.OrgMagnova, Role: models.RoleStaff}
	nova := Principal{Organization: models.OrgNova, Role: models.RoleAdmin}

	assert.NoError(t, policy.CanCreatePO(magnova))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(policy.CanCreatePO(nova)))
	assert.NoError(t, policy.CanCreateSalesOrder(nova))
}

func TestRequireRole(t *testing.T) {
	staff := Principal{Role: models.RoleStaff}
	admin := Principal{Role: models.RoleAdmin}

	assert.NoError(t, RequireRole(staff, models.RoleStaff, models.RoleAdmin))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(RequireRole(staff, models.RoleApprover)))
	assert.NoError(t, RequireAdmin(admin))
	assert.True(t, admin.IsAdmin())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(RequireAdmin(staff)))
}
