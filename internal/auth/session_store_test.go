package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/models"
)

func newTestSessionStore(t *testing.T, db *gorm.DB, clock func() time.Time) *SessionStore {
	t.Helper()

	store, err := NewSessionStore(db, SessionConfig{Clock: clock})
	require.NoError(t, err)
	return store
}

func TestCreateAndResolveSession(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	store := newTestSessionStore(t, db, nil)

	session, err := store.Create(user.ID, ClientMeta{IPAddress: "10.0.0.1", UserAgent: "browser"})
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionKey)
	require.Equal(t, user.ID, session.UserID)

	record, err := store.Resolve(session.SessionKey)
	require.NoError(t, err)
	require.Equal(t, user.ID, record.UserID)

	tracked, err := store.IsTracked(user.ID, session.SessionKey)
	require.NoError(t, err)
	require.True(t, tracked)
}

func TestResolveUnknownKey(t *testing.T) {
	db := newTestDB(t)
	store := newTestSessionStore(t, db, nil)

	_, err := store.Resolve("no-such-key")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResolveExpiredSession(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "bob")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newTestSessionStore(t, db, func() time.Time { return now })

	session, err := store.Create(user.ID, ClientMeta{})
	require.NoError(t, err)

	now = now.Add(DefaultSessionTTL + time.Minute)

	_, err = store.Resolve(session.SessionKey)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestInvalidateUserSessionsLeavesOtherUsersAlone(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	store := newTestSessionStore(t, db, nil)

	first, err := store.Create(alice.ID, ClientMeta{})
	require.NoError(t, err)
	_, err = store.Create(bob.ID, ClientMeta{})
	require.NoError(t, err)

	count, err := store.InvalidateUserSessions(alice.ID, "")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = store.Resolve(first.SessionKey)
	require.ErrorIs(t, err, ErrSessionNotFound)

	tracked, err := store.IsTracked(alice.ID, first.SessionKey)
	require.NoError(t, err)
	require.False(t, tracked)

	sessions, err := store.ListForUser(bob.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestInvalidateUserSessionsRespectsExclusion(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "carol")
	store := newTestSessionStore(t, db, nil)

	old, err := store.Create(user.ID, ClientMeta{})
	require.NoError(t, err)
	keep, err := store.Create(user.ID, ClientMeta{})
	require.NoError(t, err)

	count, err := store.InvalidateUserSessions(user.ID, keep.SessionKey)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = store.Resolve(old.SessionKey)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Resolve(keep.SessionKey)
	require.NoError(t, err)
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "dave")
	store := newTestSessionStore(t, db, nil)

	session, err := store.Create(user.ID, ClientMeta{})
	require.NoError(t, err)

	existed, err := store.Delete(session.SessionKey)
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = store.Delete(session.SessionKey)
	require.NoError(t, err, "deleting a missing session must not error")
	require.False(t, existed)

	_, err = store.Resolve(session.SessionKey)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweepExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "erin")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newTestSessionStore(t, db, func() time.Time { return now })

	stale, err := store.Create(user.ID, ClientMeta{})
	require.NoError(t, err)

	now = now.Add(DefaultSessionTTL + time.Minute)

	fresh, err := store.Create(user.ID, ClientMeta{})
	require.NoError(t, err)

	removed, err := store.SweepExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, err = store.Resolve(stale.SessionKey)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Resolve(fresh.SessionKey)
	require.NoError(t, err)

	var tracking int64
	require.NoError(t, db.Model(&models.UserSession{}).Where("session_key = ?", stale.SessionKey).Count(&tracking).Error)
	require.Zero(t, tracking, "tracking rows of swept sessions are removed")
}
