package websocket

import (
	"context"
	"fmt"

	"github.com/playgoban/goban-backend/internal/apperror"
	"github.com/playgoban/goban-backend/internal/game"
)

func (that *Server) handleCreate(_ context.Context, client *Client, _ *Frame) error {
	log := that.logger.With("method", "handleCreate", "userID", client.UserID())

	if current := client.Session(); current != nil && current.State() != game.StateClosed && current.Member(client.UserID()) {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInSession, current.ID())
	}

	session := that.registry.Create(client.UserID(), client.DisplayName(), client)
	client.SetSession(session)

	log.Info("session created", "gameID", session.ID())

	that.PublishLobby()

	return nil
}

func (that *Server) handleJoin(_ context.Context, client *Client, frame *Frame) error {
	log := that.logger.With("method", "handleJoin", "userID", client.UserID())

	session, ok := that.registry.Get(frame.GameID)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, frame.GameID)
	}

	info, err := session.Join(client.UserID(), client.DisplayName(), client)
	if err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	client.SetSession(session)

	log.Info("session joined", "gameID", session.ID())

	// Both participants learn their colors with the start event.
	for _, participant := range []game.Participant{info.Creator, info.Joiner} {
		if participant.Conn == nil {
			continue
		}

		start := StartFrame{Type: "start", Color: participant.Color, GameID: info.GameID}
		if err = participant.Conn.Send(start); err != nil {
			log.Error("failed to send start event", "gameID", info.GameID, "error", err)
		}
	}

	that.PublishLobby()

	return nil
}

func (that *Server) handleCancel(_ context.Context, client *Client, _ *Frame) error {
	log := that.logger.With("method", "handleCancel", "userID", client.UserID())

	session := client.Session()
	if session == nil {
		return apperror.ErrNotInSession
	}

	if err := that.registry.Cancel(session, client.UserID()); err != nil {
		return fmt.Errorf("failed to cancel: %w", err)
	}

	client.SetSession(nil)

	log.Info("session cancelled", "gameID", session.ID())

	that.PublishLobby()

	return nil
}

func (that *Server) handleMove(_ context.Context, client *Client, frame *Frame) error {
	log := that.logger.With("method", "handleMove", "userID", client.UserID())

	session := client.Session()
	if session == nil {
		return apperror.ErrNotInSession
	}

	if frame.X == nil || frame.Y == nil {
		return fmt.Errorf("%w: missing coordinates", apperror.ErrOutOfBounds)
	}

	outcome, err := session.Move(client.UserID(), *frame.X, *frame.Y)
	if err != nil {
		return fmt.Errorf("failed to move: %w", err)
	}

	// Move relay is point-to-point to the participants; the lobby does
	// not care about individual stones.
	update := UpdateFrame{Type: "update", X: outcome.X, Y: outcome.Y, Color: outcome.Color}
	for _, conn := range outcome.Conns {
		if err = conn.Send(update); err != nil {
			log.Error("failed to send update", "gameID", session.ID(), "error", err)
		}
	}

	return nil
}

func (that *Server) handleRejoin(_ context.Context, client *Client, frame *Frame) error {
	log := that.logger.With("method", "handleRejoin", "userID", client.UserID())

	session, ok := that.registry.Get(frame.GameID)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, frame.GameID)
	}

	color, err := session.Rejoin(client.UserID(), client)
	if err != nil {
		return fmt.Errorf("failed to rejoin: %w", err)
	}

	client.SetSession(session)

	log.Info("session rejoined", "gameID", session.ID(), "color", color)

	if err = client.Send(RejoinSuccessFrame{Type: "rejoin_success", Color: color}); err != nil {
		return fmt.Errorf("failed to confirm rejoin: %w", err)
	}

	that.PublishLobby()

	return nil
}

func (that *Server) sendError(client *Client, err error) {
	frame := ErrorFrame{Type: "error", Message: apperror.Code(err)}

	if sendErr := client.Send(frame); sendErr != nil {
		that.logger.Error("failed to send error response", "connID", client.id, "error", sendErr)
	}
}
