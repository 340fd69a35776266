package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/validator"
	"ctchen222/tictactoe/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reasons sent back to a player in error messages.
const (
	ReasonInvalidMessage = "invalid message"
	ReasonNotInRoom      = "player is not part of this game"
	ReasonNotYourTurn    = "not your turn"
	ReasonCellOccupied   = "cell is already taken"
	ReasonOutOfRange     = "position out of range"
	ReasonGameOver       = "game is over"
	ReasonGameNotOver    = "game is not over"
	ReasonServerError    = "server error"
)

// HandleMessage handles a message from a player. It acts as a dispatcher.
func (r *Room) HandleMessage(ctx context.Context, p *player.Player, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "room.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	if !r.isConnected(p) {
		slog.WarnContext(ctx, "ignoring message from disconnected player", "player.id", p.ID)
		span.SetStatus(codes.Error, "Message from disconnected player")
		return
	}

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.WarnContext(ctx, "error unmarshalling message", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		r.sendError(ctx, p, ReasonInvalidMessage)
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		r.sendError(ctx, p, ReasonInvalidMessage)
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	switch message.Type {
	case proto.TypeMove:
		if len(message.Position) != 2 {
			span.SetStatus(codes.Error, "Move without position")
			r.sendError(ctx, p, ReasonInvalidMessage)
			return
		}
		r.applyMove(ctx, p, message.Position[0], message.Position[1])
	case proto.TypeRematch:
		r.handleRematch(ctx, p)
	}
}

// applyMove plays (row, col) for p and announces the new state on the room channel.
func (r *Room) applyMove(ctx context.Context, p *player.Player, row, col int) {
	ctx, moveSpan := tracer.Start(ctx, "room.handleMove", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("room.id", r.ID),
		attribute.Int("move.row", row),
		attribute.Int("move.col", col),
	))
	defer moveSpan.End()

	gameState, err := r.gameRepo.FindByID(ctx, r.ID)
	if err != nil {
		slog.ErrorContext(ctx, "handleMove could not find game state for room", "room.id", r.ID, "error", err)
		moveSpan.RecordError(err)
		moveSpan.SetStatus(codes.Error, "Could not find game state")
		r.sendError(ctx, p, ReasonServerError)
		return
	}

	playerMark := gameState.MarkOf(p.ID)
	if playerMark == game.None {
		slog.WarnContext(ctx, "player is not part of room", "player.id", p.ID, "room.id", r.ID)
		moveSpan.SetStatus(codes.Error, "Player not part of room")
		r.sendError(ctx, p, ReasonNotInRoom)
		return
	}

	if _, err := r.gameRepo.Update(ctx, r.ID, playerMark, row, col); err != nil {
		slog.WarnContext(ctx, "invalid move from player", "player.id", p.ID, "error", err)
		moveSpan.SetAttributes(attribute.Bool("move.valid", false))
		moveSpan.RecordError(err)
		moveSpan.SetStatus(codes.Error, "Invalid move")
		r.sendError(ctx, p, moveErrorReason(err))
		return
	}
	moveSpan.SetAttributes(attribute.Bool("move.valid", true))

	if err := r.publisher.Publish(ctx, events.RoomChannel(r.ID), events.RoomUpdate); err != nil {
		slog.ErrorContext(ctx, "failed to publish update for room", "room.id", r.ID, "error", err)
		moveSpan.RecordError(err)
		moveSpan.SetStatus(codes.Error, "Failed to publish room update")
	}
}

func moveErrorReason(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return ReasonNotYourTurn
	case errors.Is(err, game.ErrIllegalMove):
		return ReasonCellOccupied
	case errors.Is(err, game.ErrInvalidPosition):
		return ReasonOutOfRange
	case errors.Is(err, game.ErrGameOver):
		return ReasonGameOver
	default:
		return ReasonServerError
	}
}

// handleRematch processes a player's rematch request.
func (r *Room) handleRematch(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "room.handleRematch", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	gameState, err := r.gameRepo.FindByID(ctx, r.ID)
	if err != nil {
		slog.ErrorContext(ctx, "could not get game state for rematch vote", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not get game state for rematch vote")
		r.sendError(ctx, p, ReasonServerError)
		return
	}

	if !gameState.IsOver() {
		slog.WarnContext(ctx, "Player requested rematch, but game is not over", "player.id", p.ID)
		span.SetStatus(codes.Error, "Rematch requested before game over")
		r.sendError(ctx, p, ReasonGameNotOver)
		return
	}

	slog.InfoContext(ctx, "Player voted for a rematch", "player.id", p.ID, "room.id", r.ID)
	if err := r.gameRepo.RecordVote(ctx, r.ID, p.ID); err != nil {
		slog.ErrorContext(ctx, "failed to record rematch vote for player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record rematch vote")
		return
	}

	if r.botOpponentOf(p) {
		slog.InfoContext(ctx, "Bot auto-accepts rematch. Resetting game.", "room.id", r.ID)
		r.resetGameForRematch(ctx, gameState)
		return
	}

	votes, err := r.gameRepo.GetVotes(ctx, r.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get all votes for room", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get all votes")
		return
	}

	if votes[gameState.PlayerXID] && votes[gameState.PlayerOID] {
		slog.InfoContext(ctx, "All players voted for a rematch. Resetting game.", "room.id", r.ID)
		r.resetGameForRematch(ctx, gameState)
		return
	}

	err = events.Publish(ctx, r.publisher, events.TypeRematchRequested, events.RematchRequestedPayload{
		RoomID:   r.ID,
		PlayerID: p.ID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish rematch_requested event", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish rematch_requested event")
	}
}
