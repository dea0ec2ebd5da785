package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	usersvc "github.com/amirasaad/marketledger/pkg/service/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckPasswordHash(t *testing.T) {
	t.Parallel()
	env := dbtest.NewEnv(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	s := authsvc.NewWithBasic(env.Deps.Uow, env.Deps.Logger)
	assert.True(t, s.CheckPasswordHash("password", string(hash)))
	assert.False(t, s.CheckPasswordHash("wrong", string(hash)))
	assert.True(t, s.ValidEmail("fixtures@example.com"))
	assert.False(t, s.ValidEmail("not-an-email"))
}

func TestJWT_LoginAndToken(t *testing.T) {
	env := dbtest.NewEnv(t)
	cfg := &config.Jwt{Secret: "test-secret", Expiry: time.Hour}
	users := usersvc.New(env.Deps.Uow, env.Deps.Logger)
	u, err := users.Register(context.Background(), "erin", "erin@example.com", "hunter2", user.RoleAdmin)
	require.NoError(t, err)

	s := authsvc.NewWithJWT(env.Deps.Uow, cfg, env.Deps.Logger)

	byName, err := s.Login(context.Background(), "erin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	byEmail, err := s.Login(context.Background(), "erin@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	signed, err := s.GenerateToken(context.Background(), byName)
	require.NoError(t, err)
	token, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["role"])

	id, err := s.GetCurrentUserId(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestLogin_Failures(t *testing.T) {
	env := dbtest.NewEnv(t)
	users := usersvc.New(env.Deps.Uow, env.Deps.Logger)
	_, err := users.Register(context.Background(), "frank", "frank@example.com", "pw", user.RoleClient)
	require.NoError(t, err)

	s := authsvc.NewWithBasic(env.Deps.Uow, env.Deps.Logger)
	_, err = s.Login(context.Background(), "frank", "wrong")
	assert.ErrorIs(t, err, user.ErrUserUnauthorized)
	_, err = s.Login(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, user.ErrUserUnauthorized)

	u, err := s.Login(context.Background(), "frank", "pw")
	require.NoError(t, err)
	assert.Equal(t, "frank", u.Username)
}

func TestGetCurrentUserId_BadClaims(t *testing.T) {
	env := dbtest.NewEnv(t)
	s := authsvc.NewWithJWT(env.Deps.Uow, &config.Jwt{Secret: "x", Expiry: time.Hour}, env.Deps.Logger)

	_, err := s.GetCurrentUserId(nil)
	assert.ErrorIs(t, err, user.ErrUserUnauthorized)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "not-a-uuid"})
	_, err = s.GetCurrentUserId(token)
	assert.ErrorIs(t, err, user.ErrUserUnauthorized)

	token = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString()})
	_, err = s.GetCurrentUserId(token)
	assert.NoError(t, err)
}
