package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/openedu/videovault/internal/auth"
	"github.com/openedu/videovault/internal/database"
	"github.com/openedu/videovault/internal/models"
)

func newSweepFixture(t *testing.T, clock func() time.Time) (*gorm.DB, *iauth.SessionStore, *iauth.TokenStore) {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sessions, err := iauth.NewSessionStore(db, iauth.SessionConfig{Clock: clock})
	require.NoError(t, err)

	tokens, err := iauth.NewTokenStore(db, iauth.TokenStoreConfig{Clock: clock})
	require.NoError(t, err)

	return db, sessions, tokens
}

func TestRunOnceSweepsExpiredCredentials(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	db, sessions, tokens := newSweepFixture(t, clock)

	user := models.User{Username: "alice", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	stale, err := sessions.Create(user.ID, iauth.ClientMeta{})
	require.NoError(t, err)
	require.NoError(t, tokens.RecordOutstanding(user.ID, "stale-jti", now.Add(time.Minute)))

	now = now.Add(iauth.DefaultSessionTTL + time.Hour)

	fresh, err := sessions.Create(user.ID, iauth.ClientMeta{})
	require.NoError(t, err)
	require.NoError(t, tokens.RecordOutstanding(user.ID, "fresh-jti", now.Add(time.Hour)))

	cleaner := NewCleaner(sessions, tokens)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	_, err = sessions.Resolve(stale.SessionKey)
	require.ErrorIs(t, err, iauth.ErrSessionNotFound)

	_, err = sessions.Resolve(fresh.SessionKey)
	require.NoError(t, err)

	var outstanding []models.OutstandingToken
	require.NoError(t, db.Find(&outstanding).Error)
	require.Len(t, outstanding, 1)
	require.Equal(t, "fresh-jti", outstanding[0].TokenID)
}

func TestRunOnceWithNothingToSweep(t *testing.T) {
	_, sessions, tokens := newSweepFixture(t, nil)

	cleaner := NewCleaner(sessions, tokens)
	require.NoError(t, cleaner.RunOnce(context.Background()))
}

func TestStartAndStopScheduler(t *testing.T) {
	_, sessions, tokens := newSweepFixture(t, nil)

	cleaner := NewCleaner(sessions, tokens, WithSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())

	done := cleaner.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartWithInvalidSchedule(t *testing.T) {
	_, sessions, tokens := newSweepFixture(t, nil)

	cleaner := NewCleaner(sessions, tokens, WithSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}

func TestCleanerWithoutStoresIsNoOp(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
}
