package room

import (
	"context"
	"log/slog"

	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/score"
	"ctchen222/tictactoe/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// resetGameForRematch starts a new game in the room and clears rematch votes.
func (r *Room) resetGameForRematch(ctx context.Context, oldGameState *game.GameStateDTO) {
	ctx, span := tracer.Start(ctx, "room.resetGameForRematch", trace.WithAttributes(
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	if _, err := r.gameRepo.Reset(ctx, r.ID); err != nil {
		slog.ErrorContext(ctx, "failed to reset game for rematch", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reset game for rematch in redis")
		return
	}

	if err := r.gameRepo.ClearVotes(ctx, r.ID, oldGameState.PlayerXID, oldGameState.PlayerOID); err != nil {
		slog.ErrorContext(ctx, "failed to clean up votes", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to clean up votes for room")
	}

	slog.InfoContext(ctx, "Game reset for rematch and votes cleaned", "room.id", r.ID)

	// Notify hubs to resend assignments and state
	err := events.Publish(ctx, r.publisher, events.TypeRematchSuccessful, events.RematchSuccessfulPayload{RoomID: r.ID})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish rematch_successful event", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish rematch_successful event")
	}
}

// HandleUpdate loads the latest game state, broadcasts it and records the result once the
// game is over.
func (r *Room) HandleUpdate(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "room.HandleUpdate", trace.WithAttributes(
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	gameState, err := r.gameRepo.FindByID(ctx, r.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Room could not get game state", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not get game state")
		return
	}

	r.Broadcast(ctx, stateMessage(gameState))
	if gameState.IsOver() {
		r.recordResults(ctx, gameState)
	} else {
		r.mu.Lock()
		r.recorded = false
		r.mu.Unlock()
	}
	r.notifyStateChanged()
}

// recordResults saves the finished game for every local human player.
func (r *Room) recordResults(ctx context.Context, gameState *game.GameStateDTO) {
	r.mu.Lock()
	if r.recorded || r.scores == nil {
		r.mu.Unlock()
		return
	}
	r.recorded = true
	players := make([]*player.Player, len(r.players))
	copy(players, r.players)
	r.mu.Unlock()

	for _, p := range players {
		mark := gameState.MarkOf(p.ID)
		if p.IsBot || mark == game.None {
			continue
		}
		if err := r.scores.Save(ctx, score.NewResult(p.ID, mark, gameState)); err != nil {
			slog.ErrorContext(ctx, "Failed to record game result", "player.id", p.ID, "room.id", r.ID, "error", err)
		}
	}
}

// SendInitialState sends each target its mark assignment, then broadcasts the board.
func (r *Room) SendInitialState(ctx context.Context, targets []*player.Player) {
	ctx, span := tracer.Start(ctx, "room.SendInitialState", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int("local_players.count", len(targets)),
	))
	defer span.End()

	slog.InfoContext(ctx, "Sending initial room state", "room.id", r.ID, "local_players.count", len(targets))

	gameState, err := r.gameRepo.FindByID(ctx, r.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Could not get initial game state", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not get initial game state")
		return
	}

	for _, p := range targets {
		mark := gameState.MarkOf(p.ID)
		if mark == game.None {
			continue
		}
		r.send(ctx, p, &proto.PlayerAssignmentMessage{
			Type:     proto.TypeAssignment,
			PlayerID: p.ID,
			RoomID:   r.ID,
			Mark:     mark,
		})
	}

	r.Broadcast(ctx, stateMessage(gameState))
	r.notifyStateChanged()
}

// Reconnect swaps in the new connection of a returning player.
func (r *Room) Reconnect(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "room.Reconnect", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	r.mu.Lock()
	replaced := false
	for i, existing := range r.players {
		if existing.ID == p.ID {
			r.players[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		r.players = append(r.players, p)
	}
	r.mu.Unlock()

	go r.ReadPump(ctx, p)

	if err := r.playerRepo.UpdateConnectionStatus(ctx, p.ID, player.StatusConnected); err != nil {
		slog.ErrorContext(ctx, "Failed to set player status to connected", "player.id", p.ID, "error", err)
		span.RecordError(err)
	}
	err := events.Publish(ctx, r.publisher, events.TypePlayerReconnected, events.PlayerReconnectedPayload{
		RoomID:   r.ID,
		PlayerID: p.ID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish player_reconnected event", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish player_reconnected event")
	}

	r.SendInitialState(ctx, []*player.Player{p})
}

// HandleOpponentDisconnected tells the other local players that playerID went away.
func (r *Room) HandleOpponentDisconnected(ctx context.Context, playerID string) {
	r.notifyOthers(ctx, playerID, proto.TypeOpponentDisconnected)
}

// HandleOpponentReconnected tells the other local players that playerID is back.
func (r *Room) HandleOpponentReconnected(ctx context.Context, playerID string) {
	r.notifyOthers(ctx, playerID, proto.TypeOpponentReconnected)
}

// HandleRematchRequested asks the other local players to accept a rematch.
func (r *Room) HandleRematchRequested(ctx context.Context, playerID string) {
	r.notifyOthers(ctx, playerID, proto.TypeRematchRequested)
}

func (r *Room) notifyOthers(ctx context.Context, playerID, messageType string) {
	ctx, span := tracer.Start(ctx, "room.notifyOthers", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("player.id", playerID),
		attribute.String("message.type", messageType),
	))
	defer span.End()

	msg := &proto.ServerToClientMessage{Type: messageType}
	for _, p := range r.connectedPlayers() {
		if p.ID != playerID {
			r.send(ctx, p, msg)
		}
	}
}

func stateMessage(s *game.GameStateDTO) *proto.ServerToClientMessage {
	msg := &proto.ServerToClientMessage{
		Type:   proto.TypeUpdate,
		Board:  s.Board.Slice(),
		Next:   s.CurrentTurn,
		Winner: s.Winner,
		IsDraw: s.IsDraw,
	}
	if line, ok := game.WinningLine(s.Board); ok {
		msg.WinningLine = line[:]
	}
	return msg
}
