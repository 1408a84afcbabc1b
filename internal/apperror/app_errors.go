package apperror

import "errors"

var (
	ErrAlreadyInSession = errors.New("connection already has an active session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session is already full")
	ErrSelfJoin         = errors.New("creator cannot join their own session")
	ErrNotInSession     = errors.New("no active session for this connection")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrOutOfBounds      = errors.New("coordinates are outside the board")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrNotAMember       = errors.New("not a member of this session")
)

// codes maps request errors to the short names sent in error frames.
var codes = []struct {
	err  error
	code string
}{
	{ErrAlreadyInSession, "AlreadyInSession"},
	{ErrSessionNotFound, "SessionNotFound"},
	{ErrSessionFull, "SessionFull"},
	{ErrSelfJoin, "SelfJoin"},
	{ErrNotInSession, "NotInSession"},
	{ErrNotYourTurn, "NotYourTurn"},
	{ErrOutOfBounds, "OutOfBounds"},
	{ErrCellOccupied, "CellOccupied"},
	{ErrNotAMember, "NotAMember"},
}

// Code - returns the wire code for a request error, or "InternalError"
// for anything outside the request taxonomy.
func Code(err error) string {
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}

	return "InternalError"
}
