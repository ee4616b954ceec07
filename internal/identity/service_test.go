package identity

import (
	"context"
	"testing"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	return NewService(memstore.New(), auth.NewTokens("test-secret", time.Hour))
}

func register(t *testing.T, svc *Service, email string) *Session {
	t.Helper()
	sess, err := svc.Register(context.Background(), RegisterInput{
		Email: email, Password: "hunter22", Name: "Meera", Organization: models.OrgMagnova, Role: models.RoleStaff,
	})
	require.NoError(t, err)
	return sess
}

func TestRegisterAndResolve(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	sess := register(t, svc, " Meera@Magnova.in ")
	assert.Equal(t, "bearer", sess.TokenType)
	assert.Equal(t, "meera@magnova.in", sess.User.Email)
	assert.NotEqual(t, "hunter22", sess.User.Password)

	u, err := svc.Resolve(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.UserID, u.UserID)
	assert.Equal(t, models.OrgMagnova, u.Organization)
}

func TestRegisterRejections(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	register(t, svc, "a@magnova.in")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Email: "A@magnova.in", Password: "secret1", Name: "x", Organization: "Nova", Role: "Staff"})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("bad email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Email: "nope", Password: "secret1", Name: "x", Organization: "Nova", Role: "Staff"})
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Email: "b@magnova.in", Password: "123", Name: "x", Organization: "Nova", Role: "Staff"})
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	})
}

func TestLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	register(t, svc, "a@magnova.in")

	sess, err := svc.Login(ctx, LoginInput{Email: "a@magnova.in", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)

	_, err = svc.Login(ctx, LoginInput{Email: "a@magnova.in", Password: "wrong"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@magnova.in", Password: "hunter22"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestResolveRejectsUnknownSubject(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := NewService(memstore.New(), tokens)

	token, err := tokens.Issue("deleted-user", "x@magnova.in")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), token)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Resolve(context.Background(), "garbage")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
