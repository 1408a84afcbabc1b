package game

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/playgoban/goban-backend/internal/apperror"
	"github.com/playgoban/goban-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGracePeriod = 25 * time.Millisecond

type fakeArchive struct {
	mu      sync.Mutex
	records []*entity.GameRecord
}

func (that *fakeArchive) Save(_ context.Context, record *entity.GameRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.records = append(that.records, record)

	return nil
}

func (that *fakeArchive) saved() []*entity.GameRecord {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.GameRecord(nil), that.records...)
}

type fakeNotifier struct {
	mu      sync.Mutex
	expired []string
}

func (that *fakeNotifier) SessionExpired(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.expired = append(that.expired, gameID)
}

func (that *fakeNotifier) expiredIDs() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.expired...)
}

func newTestRegistry(t *testing.T) (*Registry, *fakeArchive, *fakeNotifier) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	archive := &fakeArchive{}
	notifier := &fakeNotifier{}

	registry := NewRegistry(logger, entity.DefaultBoardSize, testGracePeriod, archive)
	registry.SetNotifier(notifier)

	return registry, archive, notifier
}

func TestRegistry_Create(t *testing.T) {
	t.Run("IDs are monotonic and never reused", func(t *testing.T) {
		// Given: a fresh registry
		registry, _, _ := newTestRegistry(t)

		// When: two sessions are created and the first one is removed
		first := registry.Create("1", "alice", newFakeConn("1"))
		second := registry.Create("2", "bob", newFakeConn("2"))
		registry.Remove(first.ID())
		third := registry.Create("3", "carol", newFakeConn("3"))

		// Then: every ID is fresh
		assert.Equal(t, "g1", first.ID())
		assert.Equal(t, "g2", second.ID())
		assert.Equal(t, "g3", third.ID())
	})
}

func TestRegistry_Remove(t *testing.T) {
	t.Run("Removing twice is a no-op", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)

		session := registry.Create("1", "alice", newFakeConn("1"))

		registry.Remove(session.ID())
		registry.Remove(session.ID())

		_, ok := registry.Get(session.ID())
		assert.False(t, ok)
	})
}

func TestRegistry_ListSummaries(t *testing.T) {
	t.Run("Summaries come back in creation order", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)

		registry.Create("1", "alice", newFakeConn("1"))
		registry.Create("2", "bob", newFakeConn("2"))
		registry.Create("3", "carol", newFakeConn("3"))

		summaries := registry.ListSummaries()

		require.Len(t, summaries, 3)
		assert.Equal(t, []string{"g1", "g2", "g3"}, []string{
			summaries[0].GameID, summaries[1].GameID, summaries[2].GameID,
		})
		assert.Equal(t, "alice", summaries[0].Player1)
	})
}

func TestRegistry_HandleDisconnect(t *testing.T) {
	t.Run("Creator loss with no opponent removes and archives immediately", func(t *testing.T) {
		// Given: an open session
		registry, archive, _ := newTestRegistry(t)
		creator := newFakeConn("1")
		session := registry.Create("1", "alice", creator)

		// When: the creator's connection drops
		changed := registry.HandleDisconnect(creator)

		// Then: the session is gone and the close was archived
		assert.True(t, changed)
		_, ok := registry.Get(session.ID())
		assert.False(t, ok)

		records := archive.saved()
		require.Len(t, records, 1)
		assert.Equal(t, entity.CloseReasonCreatorLeft, records[0].Reason)
	})

	t.Run("Grace expiry removes the session exactly once", func(t *testing.T) {
		// Given: an active session that loses both sides
		registry, archive, notifier := newTestRegistry(t)
		creator := newFakeConn("1")
		session := registry.Create("1", "alice", creator)

		joiner := newFakeConn("2")
		_, err := session.Join("2", "bob", joiner)
		require.NoError(t, err)

		registry.HandleDisconnect(creator)
		registry.HandleDisconnect(joiner)
		require.Equal(t, StateAbandoned, session.State())

		// Then: after the grace window the session is removed, archived
		// with the expiry reason, and the notifier is told once
		require.Eventually(t, func() bool {
			_, ok := registry.Get(session.ID())
			return !ok
		}, time.Second, 5*time.Millisecond)

		assert.Eventually(t, func() bool {
			return len(notifier.expiredIDs()) == 1
		}, time.Second, 5*time.Millisecond)

		records := archive.saved()
		require.Len(t, records, 1)
		assert.Equal(t, entity.CloseReasonGraceExpiry, records[0].Reason)
		assert.Equal(t, []string{session.ID()}, notifier.expiredIDs())
	})

	t.Run("Rejoin within the grace window cancels the removal", func(t *testing.T) {
		// Given: an abandoned session with a running grace timer
		registry, archive, notifier := newTestRegistry(t)
		creator := newFakeConn("1")
		session := registry.Create("1", "alice", creator)

		joiner := newFakeConn("2")
		_, err := session.Join("2", "bob", joiner)
		require.NoError(t, err)

		registry.HandleDisconnect(creator)
		registry.HandleDisconnect(joiner)

		// When: white rejoins before the timer fires
		_, err = session.Rejoin("2", newFakeConn("2"))
		require.NoError(t, err)

		// Then: well past the window, the session is still there
		time.Sleep(4 * testGracePeriod)

		_, ok := registry.Get(session.ID())
		assert.True(t, ok)
		assert.Equal(t, StateActive, session.State())
		assert.Empty(t, archive.saved())
		assert.Empty(t, notifier.expiredIDs())
	})

	t.Run("Disconnect of an unknown connection changes nothing", func(t *testing.T) {
		registry, _, _ := newTestRegistry(t)
		registry.Create("1", "alice", newFakeConn("1"))

		changed := registry.HandleDisconnect(newFakeConn("99"))

		assert.False(t, changed)
	})
}

func TestRegistry_Cancel(t *testing.T) {
	t.Run("Creator cancel removes and archives", func(t *testing.T) {
		registry, archive, _ := newTestRegistry(t)
		session := registry.Create("1", "alice", newFakeConn("1"))

		err := registry.Cancel(session, "1")

		require.NoError(t, err)
		_, ok := registry.Get(session.ID())
		assert.False(t, ok)

		records := archive.saved()
		require.Len(t, records, 1)
		assert.Equal(t, entity.CloseReasonCancelled, records[0].Reason)
	})

	t.Run("Non-creator cancel is rejected", func(t *testing.T) {
		registry, archive, _ := newTestRegistry(t)
		session := registry.Create("1", "alice", newFakeConn("1"))

		err := registry.Cancel(session, "2")

		assert.ErrorIs(t, err, apperror.ErrNotInSession)
		_, ok := registry.Get(session.ID())
		assert.True(t, ok)
		assert.Empty(t, archive.saved())
	})
}
