package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amirkenesbay/auth-service/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	return &GormRepo{DB: db}
}

func TestGormRepo_CreateUser_DuplicateEmail(t *testing.T) {
	rp := newTestRepo(t)
	ctx := context.Background()

	u1 := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", PasswordHash: "h1", Role: models.RoleUser}
	require.NoError(t, rp.CreateUser(ctx, u1))
	require.NotZero(t, u1.ID)

	u2 := &models.User{FirstName: "John", LastName: "Doe", Email: "jane@example.com", PasswordHash: "h2", Role: models.RoleUser}
	err := rp.CreateUser(ctx, u2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGormRepo_FindUser_NotFound(t *testing.T) {
	rp := newTestRepo(t)
	ctx := context.Background()

	_, err := rp.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = rp.FindUserByID(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_DeleteRefreshByUserID_RemovesAllForUser(t *testing.T) {
	rp := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", PasswordHash: "h", Role: models.RoleUser}
	require.NoError(t, rp.CreateUser(ctx, user))
	other := &models.User{FirstName: "John", LastName: "Doe", Email: "john@example.com", PasswordHash: "h", Role: models.RoleUser}
	require.NoError(t, rp.CreateUser(ctx, other))

	exp := time.Now().Add(time.Hour)
	for _, tok := range []string{"t1", "t2"} {
		require.NoError(t, rp.CreateRefreshToken(ctx, &models.RefreshToken{Token: tok, UserID: user.ID, ExpiresAt: exp}))
	}
	require.NoError(t, rp.CreateRefreshToken(ctx, &models.RefreshToken{Token: "t3", UserID: other.ID, ExpiresAt: exp}))

	require.NoError(t, rp.DeleteRefreshByUserID(ctx, user.ID))

	_, err := rp.FindRefreshByToken(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = rp.FindRefreshByToken(ctx, "t2")
	assert.ErrorIs(t, err, ErrNotFound)

	// Other users' tokens are untouched.
	kept, err := rp.FindRefreshByToken(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, other.ID, kept.UserID)
}

func TestGormRepo_DeleteRefreshToken(t *testing.T) {
	rp := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", PasswordHash: "h", Role: models.RoleUser}
	require.NoError(t, rp.CreateUser(ctx, user))

	tok := &models.RefreshToken{Token: "t1", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, rp.CreateRefreshToken(ctx, tok))

	require.NoError(t, rp.DeleteRefreshToken(ctx, tok))
	_, err := rp.FindRefreshByToken(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)
}
