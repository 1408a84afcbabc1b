package entity

import "time"

// Identity is the authenticated user attached to a connection before it
// reaches this engine. The auth service resolves it once; the engine
// trusts it for the connection's lifetime.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// GameRecord is the terminal snapshot of a session, persisted when the
// session closes.
type GameRecord struct {
	ID        string    `json:"id"`
	BlackID   string    `json:"black_id"`
	BlackName string    `json:"black_name"`
	WhiteID   string    `json:"white_id,omitempty"`
	WhiteName string    `json:"white_name,omitempty"`
	Stones    int       `json:"stones"`
	Reason    string    `json:"reason"`
	ClosedAt  time.Time `json:"closed_at"`
}

// Close reasons recorded in GameRecord.
const (
	CloseReasonCreatorLeft = "creator_left"
	CloseReasonCancelled   = "cancelled"
	CloseReasonGraceExpiry = "grace_expired"
)
