package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/playgoban/goban-backend/internal/apperror"
	"github.com/playgoban/goban-backend/internal/entity"
)

type State string

const (
	StateOpen      State = "open"
	StateActive    State = "active"
	StateAbandoned State = "abandoned"
	StateClosed    State = "closed"
)

// reconnectingPlaceholder is shown in lobby summaries instead of the
// display name while a slot's connection is down.
const reconnectingPlaceholder = "reconnecting"

// Conn is the gateway-owned connection handle a session may hold a weak
// reference to. The session never closes it; it only sends through it
// and compares it for equality on disconnect.
type Conn interface {
	UserID() string
	Send(v any) error
}

// slot is one of the two player positions. The color is fixed at
// creation time: the creator plays black, the joiner white.
type slot struct {
	userID       string
	displayName  string
	color        string
	conn         Conn
	disconnected bool
}

// Session is one match: two slots, a board and a turn tracker.
//
// All state transitions happen under the session mutex, including the
// grace timer callback, so "timer fired and closed the session" and
// "rejoin cancelled the timer" are mutually exclusive outcomes.
type Session struct {
	id  string
	seq uint64

	mu         sync.Mutex
	state      State
	board      *entity.Board
	turn       string
	slotA      *slot
	slotB      *slot
	graceTimer *time.Timer
}

func newSession(id string, seq uint64, boardSize int, userID, displayName string, conn Conn) *Session {
	return &Session{
		id:    id,
		seq:   seq,
		state: StateOpen,
		board: entity.NewBoard(boardSize),
		turn:  entity.ColorBlack,
		slotA: &slot{
			userID:      userID,
			displayName: displayName,
			color:       entity.ColorBlack,
			conn:        conn,
		},
	}
}

func (that *Session) ID() string {
	return that.id
}

func (that *Session) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

// Member - reports whether the user occupies one of the slots.
func (that *Session) Member(userID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.findSlot(userID) != nil
}

// Participant is a connection a result should be relayed to, together
// with the color that slot owns.
type Participant struct {
	Conn  Conn
	Color string
}

// JoinInfo tells the caller who must be notified with a start event.
type JoinInfo struct {
	GameID  string
	Creator Participant
	Joiner  Participant
}

// Join - fills the second slot and makes the session active.
func (that *Session) Join(userID, displayName string, conn Conn) (*JoinInfo, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state == StateClosed {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, that.id)
	}

	if userID == that.slotA.userID {
		return nil, apperror.ErrSelfJoin
	}

	if that.slotB != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionFull, that.id)
	}

	that.slotB = &slot{
		userID:      userID,
		displayName: displayName,
		color:       entity.ColorWhite,
		conn:        conn,
	}
	that.state = StateActive

	return &JoinInfo{
		GameID:  that.id,
		Creator: Participant{Conn: that.slotA.conn, Color: that.slotA.color},
		Joiner:  Participant{Conn: conn, Color: that.slotB.color},
	}, nil
}

// MoveOutcome carries the placed stone and the live connections the
// update must be relayed to.
type MoveOutcome struct {
	X     int
	Y     int
	Color string
	Conns []Conn
}

// Move - places a stone for the slot owned by userID. The acting color
// is derived from the identity-to-slot mapping only; a client-supplied
// color claim is never consulted.
func (that *Session) Move(userID string, x, y int) (*MoveOutcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StateActive {
		return nil, apperror.ErrNotInSession
	}

	acting := that.findSlot(userID)
	if acting == nil {
		return nil, apperror.ErrNotInSession
	}

	if acting.color != that.turn {
		return nil, apperror.ErrNotYourTurn
	}

	if err := that.board.PlaceStone(x, y, acting.color); err != nil {
		return nil, err
	}

	that.turn = entity.OppositeColor(that.turn)

	return &MoveOutcome{
		X:     x,
		Y:     y,
		Color: acting.color,
		Conns: that.liveConns(),
	}, nil
}

// Rejoin - reattaches a returning user to their slot. The stored
// connection reference is replaced even when the slot was never flagged
// disconnected: clients open a fresh socket per page and the stale one
// is detached lazily by equality check on its close.
func (that *Session) Rejoin(userID string, conn Conn) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state == StateClosed {
		return "", fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, that.id)
	}

	claimed := that.findSlot(userID)
	if claimed == nil {
		return "", apperror.ErrNotAMember
	}

	claimed.conn = conn
	claimed.disconnected = false

	that.cancelGraceTimer()

	if that.state == StateAbandoned {
		that.state = StateActive
	}

	return claimed.color, nil
}

// DisconnectResult reports what a dropped connection changed.
type DisconnectResult struct {
	// Changed - a displayed slot state changed (lobby must republish).
	Changed bool
	// BothGone - the session just lost its last live connection and a
	// grace timer should be armed.
	BothGone bool
	// Record - non-nil when the session closed immediately (creator
	// lost with no opponent yet); the caller removes and archives it.
	Record *entity.GameRecord
}

// Disconnect - clears every slot this connection occupies. Matching is
// by connection equality: a slot already reclaimed through Rejoin keeps
// its fresh connection when the stale one finally closes.
func (that *Session) Disconnect(conn Conn) DisconnectResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	var result DisconnectResult

	for _, s := range []*slot{that.slotA, that.slotB} {
		if s == nil || s.conn != conn {
			continue
		}

		s.conn = nil
		s.disconnected = true
		result.Changed = true
	}

	if !result.Changed {
		return result
	}

	if that.state == StateOpen {
		// No opponent to wait for: close right away.
		result.Record = that.closeLocked(entity.CloseReasonCreatorLeft)
		return result
	}

	if that.state == StateActive && that.slotA.disconnected && that.slotB != nil && that.slotB.disconnected {
		that.state = StateAbandoned
		result.BothGone = true
	}

	return result
}

// ArmGraceTimer - schedules expire to run after the grace period. A
// no-op unless the session is abandoned, and idempotent while a timer
// is already pending.
func (that *Session) ArmGraceTimer(d time.Duration, expire func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StateAbandoned || that.graceTimer != nil {
		return
	}

	that.graceTimer = time.AfterFunc(d, expire)
}

// CloseIf - transitions to Closed if the session is currently in the
// given state and returns the terminal record. Returns nil when the
// session moved on in the meantime, which is how a grace timer firing
// after a successful rejoin becomes a no-op.
func (that *Session) CloseIf(from State, reason string) *entity.GameRecord {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != from {
		return nil
	}

	return that.closeLocked(reason)
}

// Cancel - explicit creator cancel of a session that has no opponent.
func (that *Session) Cancel(userID string) (*entity.GameRecord, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state == StateClosed {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, that.id)
	}

	if that.state != StateOpen || that.slotA.userID != userID {
		return nil, apperror.ErrNotInSession
	}

	return that.closeLocked(entity.CloseReasonCancelled), nil
}

// Summary is the public lobby view of a session.
type Summary struct {
	GameID  string
	Player1 string
	Player2 string
}

// Summary - display names for the lobby; occupied-but-disconnected
// slots show the reconnecting placeholder, never-filled slots are
// empty.
func (that *Session) Summary() Summary {
	that.mu.Lock()
	defer that.mu.Unlock()

	summary := Summary{
		GameID:  that.id,
		Player1: displayOf(that.slotA),
	}
	if that.slotB != nil {
		summary.Player2 = displayOf(that.slotB)
	}

	return summary
}

func displayOf(s *slot) string {
	if s.disconnected {
		return reconnectingPlaceholder
	}
	return s.displayName
}

func (that *Session) findSlot(userID string) *slot {
	if that.slotA != nil && that.slotA.userID == userID {
		return that.slotA
	}
	if that.slotB != nil && that.slotB.userID == userID {
		return that.slotB
	}
	return nil
}

func (that *Session) liveConns() []Conn {
	conns := make([]Conn, 0, 2)
	for _, s := range []*slot{that.slotA, that.slotB} {
		if s != nil && s.conn != nil {
			conns = append(conns, s.conn)
		}
	}
	return conns
}

func (that *Session) cancelGraceTimer() {
	if that.graceTimer == nil {
		return
	}

	that.graceTimer.Stop()
	that.graceTimer = nil
}

// closeLocked - terminal transition; callers hold the mutex.
func (that *Session) closeLocked(reason string) *entity.GameRecord {
	that.cancelGraceTimer()
	that.state = StateClosed

	record := &entity.GameRecord{
		ID:        that.id,
		BlackID:   that.slotA.userID,
		BlackName: that.slotA.displayName,
		Stones:    that.board.StoneCount(),
		Reason:    reason,
		ClosedAt:  time.Now(),
	}
	if that.slotB != nil {
		record.WhiteID = that.slotB.userID
		record.WhiteName = that.slotB.displayName
	}

	return record
}
