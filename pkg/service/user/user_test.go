package user_test

import (
	"context"
	"testing"

	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	usersvc "github.com/amirasaad/marketledger/pkg/service/user"
	"github.com/amirasaad/marketledger/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := dbtest.NewEnv(t)
	svc := usersvc.New(env.Deps.Uow, env.Deps.Logger)
	ctx := context.Background()

	u, err := svc.Register(ctx, "carol", "carol@example.com", "s3cret!", user.RoleInvestor)
	require.NoError(t, err)
	assert.Zero(t, u.Credits)
	assert.Equal(t, user.RoleInvestor, u.Role)
	assert.True(t, utils.CheckPasswordHash("s3cret!", u.Password))

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)

	got, err = svc.GetUserByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegister_Rejections(t *testing.T) {
	env := dbtest.NewEnv(t)
	svc := usersvc.New(env.Deps.Uow, env.Deps.Logger)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave", "not-an-email", "pw", user.RoleClient)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Register(ctx, "dave", "dave@example.com", "pw", user.Role("pirate"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, user.ErrInvalidRole)

	_, err = svc.Register(ctx, "dave", "dave@example.com", "pw", user.RoleClient)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "dave", "other@example.com", "pw", user.RoleClient)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGetUser_NotFound(t *testing.T) {
	env := dbtest.NewEnv(t)
	svc := usersvc.New(env.Deps.Uow, env.Deps.Logger)
	u, err := svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.Nil(t, u)
}
