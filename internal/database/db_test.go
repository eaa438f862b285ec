package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openedu/videovault/internal/cache"
	"github.com/openedu/videovault/internal/models"
)

func TestOpenSQLiteInMemoryAndMigrate(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	user := models.User{Username: "migrate-check", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	require.NotEmpty(t, user.ID)

	require.NoError(t, db.Create(&models.ActiveToken{UserID: user.ID, TokenID: "jti-1"}).Error)

	var token models.ActiveToken
	require.NoError(t, db.Take(&token, "user_id = ?", user.ID).Error)
	require.Equal(t, "jti-1", token.TokenID)
}

func TestAutoMigrateBacksDatabaseCache(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "active:user-1", []byte("jti-1"), time.Minute))

	value, found, err := store.Get(ctx, "active:user-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("jti-1"), value)

	require.NoError(t, store.Delete(ctx, "active:user-1"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "vault", Name: "videovault", Host: "db", Port: 5433})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=db")
	require.Contains(t, dsn, "port=5433")
	require.Contains(t, dsn, "sslmode=disable")

	_, err = buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "vault", Password: "pw", Name: "videovault"})
	require.NoError(t, err)
	require.Contains(t, dsn, "vault:pw@tcp(127.0.0.1:3306)/videovault")
	require.Contains(t, dsn, "parseTime=True")
}

func TestSeedDataSkipsWithoutPassword(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	t.Setenv("VIDEOVAULT_ADMIN_PASSWORD", "")
	require.NoError(t, SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSeedDataCreatesAdmin(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:seedtest?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	t.Setenv("VIDEOVAULT_ADMIN_USERNAME", "root-admin")
	t.Setenv("VIDEOVAULT_ADMIN_PASSWORD", "first-login-pw")
	require.NoError(t, SeedData(db))

	var admin models.User
	require.NoError(t, db.Take(&admin, "username = ?", "root-admin").Error)
	require.True(t, admin.IsAdmin)

	// Idempotent: a second run must not create another account.
	require.NoError(t, SeedData(db))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
