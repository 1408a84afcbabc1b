package websocket

// Lobby broadcasting: every registry change that alters the public
// summary pushes a full replacement snapshot to all connected clients.
// Broadcasts are best-effort; a slow client simply sees the next one.

func (that *Server) lobbySnapshot() *LobbyFrame {
	summaries := that.registry.ListSummaries()

	games := make([]GameSummary, 0, len(summaries))
	for _, summary := range summaries {
		games = append(games, GameSummary{
			GameID:  summary.GameID,
			Player1: summary.Player1,
			Player2: summary.Player2,
		})
	}

	return &LobbyFrame{Games: games}
}

// PublishLobby - recomputes the summary list and sends it to every
// connected client.
func (that *Server) PublishLobby() {
	log := that.logger.With("method", "PublishLobby")

	snapshot := that.lobbySnapshot()

	for _, client := range that.allClients() {
		if err := client.Send(snapshot); err != nil {
			log.Warn("failed to send lobby snapshot", "connID", client.id, "error", err)
		}
	}
}

// SessionExpired - registry callback for grace-period removals, the
// one removal path that happens outside any client request.
func (that *Server) SessionExpired(gameID string) {
	that.logger.Info("session removed after grace period", "gameID", gameID)

	that.PublishLobby()
}
