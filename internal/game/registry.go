package game

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/playgoban/goban-backend/internal/entity"
)

const archiveTimeout = 5 * time.Second

// Archiver persists terminal session records. Writes are best-effort:
// a failed archive never blocks a close.
type Archiver interface {
	Save(ctx context.Context, record *entity.GameRecord) error
}

// Notifier is told about removals that happen outside any request,
// i.e. grace-period expiries, so the lobby can republish.
type Notifier interface {
	SessionExpired(gameID string)
}

// Registry is the process-wide collection of live sessions. It owns
// the ID counter and the only map from session ID to session; every
// session mutation goes through Session operations, never through
// direct field access.
type Registry struct {
	logger      *slog.Logger
	boardSize   int
	gracePeriod time.Duration
	archive     Archiver

	mu       sync.Mutex
	sessions map[string]*Session
	lastSeq  uint64
	notifier Notifier
}

func NewRegistry(logger *slog.Logger, boardSize int, gracePeriod time.Duration, archive Archiver) *Registry {
	return &Registry{
		logger:      logger.With("component", "registry"),
		boardSize:   boardSize,
		gracePeriod: gracePeriod,
		archive:     archive,
		sessions:    make(map[string]*Session),
	}
}

// SetNotifier - wires the lobby after construction; the gateway and
// the registry reference each other, so this cannot happen in New.
func (that *Registry) SetNotifier(notifier Notifier) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.notifier = notifier
}

// Create - allocates a fresh, never-reused session ID and inserts an
// open session with the requester in the black slot.
func (that *Registry) Create(userID, displayName string, conn Conn) *Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.lastSeq++
	id := fmt.Sprintf("g%d", that.lastSeq)

	session := newSession(id, that.lastSeq, that.boardSize, userID, displayName, conn)
	that.sessions[id] = session

	that.logger.Info("session created", "gameID", id, "userID", userID)

	return session
}

func (that *Registry) Get(id string) (*Session, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]

	return session, ok
}

// Remove - drops the session from the registry; removing an unknown ID
// is a no-op.
func (that *Registry) Remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, id)
}

// ListSummaries - fresh public snapshot of every live session, ordered
// by creation sequence.
func (that *Registry) ListSummaries() []Summary {
	sessions := that.snapshot()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].seq < sessions[j].seq
	})

	summaries := make([]Summary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}

	return summaries
}

// HandleDisconnect - runs the disconnect transition on every session
// where the connection occupies a slot. Returns true when any displayed
// state changed and the lobby should republish.
func (that *Registry) HandleDisconnect(conn Conn) bool {
	changed := false

	for _, session := range that.snapshot() {
		result := session.Disconnect(conn)
		changed = changed || result.Changed

		if result.Record != nil {
			that.Remove(session.ID())
			that.archiveRecord(result.Record)
			continue
		}

		if result.BothGone {
			that.armGrace(session)
		}
	}

	return changed
}

// Cancel - explicit creator cancel: close, remove and archive in one
// operation.
func (that *Registry) Cancel(session *Session, userID string) error {
	record, err := session.Cancel(userID)
	if err != nil {
		return err
	}

	that.Remove(session.ID())
	that.archiveRecord(record)

	return nil
}

// armGrace - schedules the session's removal after the grace period.
// The timer callback decides "expired" vs "rejoined" under the session
// mutex: CloseIf returns nil when a rejoin got there first.
func (that *Registry) armGrace(session *Session) {
	session.ArmGraceTimer(that.gracePeriod, func() {
		that.expireSession(session)
	})
}

func (that *Registry) expireSession(session *Session) {
	record := session.CloseIf(StateAbandoned, entity.CloseReasonGraceExpiry)
	if record == nil {
		return
	}

	that.Remove(session.ID())
	that.archiveRecord(record)

	that.logger.Info("session expired", "gameID", session.ID())

	that.mu.Lock()
	notifier := that.notifier
	that.mu.Unlock()

	if notifier != nil {
		notifier.SessionExpired(session.ID())
	}
}

func (that *Registry) archiveRecord(record *entity.GameRecord) {
	if that.archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := that.archive.Save(ctx, record); err != nil {
		that.logger.Error("failed to archive session", "gameID", record.ID, "error", err)
	}
}

func (that *Registry) snapshot() []*Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	sessions := make([]*Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}
