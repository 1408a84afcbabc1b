package websocket

// Frame is the single inbound envelope. The original clients use
// "action" for lobby requests and "type" for in-game requests; both
// keys are accepted and dispatched by whichever is set.
type Frame struct {
	Action string `json:"action,omitempty"`
	Type   string `json:"type,omitempty"`
	GameID string `json:"gameId,omitempty"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
	// Color is an advisory hint on rejoin; the server recomputes the
	// real color from the identity-to-slot mapping and ignores this.
	Color string `json:"color,omitempty"`
}

// GameSummary is one lobby entry; PlayerN is a display name, the
// reconnecting placeholder, or absent for a never-filled slot.
type GameSummary struct {
	GameID  string `json:"gameId"`
	Player1 string `json:"player1,omitempty"`
	Player2 string `json:"player2,omitempty"`
}

// LobbyFrame is the full lobby snapshot pushed to every client.
type LobbyFrame struct {
	Games []GameSummary `json:"games"`
}

type StartFrame struct {
	Type   string `json:"type"`
	Color  string `json:"color"`
	GameID string `json:"gameId"`
}

type UpdateFrame struct {
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

type RejoinSuccessFrame struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
