package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/room"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// subscribeRoom subscribes to the room channel and waits for the confirmation, so no
// update published after it returns is missed.
func (h *Hub) subscribeRoom(ctx context.Context, r *room.Room) (*redis.PubSub, error) {
	roomChannel := events.RoomChannel(r.ID)
	slog.InfoContext(ctx, "Starting room subscriber", "room.id", r.ID, "channel", roomChannel)
	pubsub := h.rdb.Subscribe(ctx, roomChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", roomChannel, err)
	}
	return pubsub, nil
}

// runRoomUpdateSubscriber forwards state changes published for the room until it closes.
func (h *Hub) runRoomUpdateSubscriber(ctx context.Context, r *room.Room, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.Done():
			slog.InfoContext(ctx, "Stopping room subscriber", "room.id", r.ID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			updateCtx, updateSpan := tracer.Start(ctx, "hub.handleRoomUpdate", trace.WithAttributes(
				attribute.String("room.id", r.ID),
				attribute.String("redis.payload", msg.Payload),
			))
			r.HandleUpdate(updateCtx)
			updateSpan.End()
		}
	}
}

func (h *Hub) runMatcher(ctx context.Context) {
	slog.InfoContext(ctx, "Redis-based matcher started")
	for {
		if ctx.Err() != nil {
			return
		}
		h.matchOnce(ctx)
	}
}

// matchOnce pairs the next two queued players into a new two-player game.
func (h *Hub) matchOnce(ctx context.Context) {
	matchCtx, matchSpan := tracer.Start(ctx, "hub.runMatcher.matchAttempt")
	defer matchSpan.End()

	player1ID, player2ID, err := h.matchmakingRepo.GetPlayersFromQueue(matchCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		slog.ErrorContext(matchCtx, "Error getting players from queue", "error", err)
		matchSpan.RecordError(err)
		matchSpan.SetStatus(codes.Error, "Error getting players from queue")
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return
	}

	roomID := uuid.New().String()
	matchSpan.SetAttributes(
		attribute.String("player1.id", player1ID),
		attribute.String("player2.id", player2ID),
		attribute.String("room.id", roomID),
	)

	if err := h.gameRepo.Create(matchCtx, roomID, player1ID, player2ID, game.TwoPlayer, ""); err != nil {
		slog.ErrorContext(matchCtx, "Failed to create new game, re-queuing players", "room.id", roomID, "error", err)
		matchSpan.RecordError(err)
		matchSpan.SetStatus(codes.Error, "Failed to create game in Redis")
		for _, id := range []string{player1ID, player2ID} {
			if err := h.matchmakingRepo.AddToQueue(matchCtx, id); err != nil {
				slog.ErrorContext(matchCtx, "FATAL: Failed to re-queue player", "player.id", id, "error", err)
				matchSpan.RecordError(err)
			}
		}
		return
	}

	for _, id := range []string{player1ID, player2ID} {
		if err := h.playerRepo.UpdateForMatch(matchCtx, id, roomID); err != nil {
			slog.ErrorContext(matchCtx, "Failed to update player state for match", "player.id", id, "error", err)
			matchSpan.RecordError(err)
			matchSpan.SetStatus(codes.Error, "Failed to update player for match")
		}
	}

	err = events.Publish(matchCtx, h.publisher, events.TypeMatchMade, events.MatchMadePayload{
		RoomID:    roomID,
		PlayerIDs: []string{player1ID, player2ID},
	})
	if err != nil {
		slog.ErrorContext(matchCtx, "Failed to publish match_made event", "room.id", roomID, "error", err)
		matchSpan.RecordError(err)
		matchSpan.SetStatus(codes.Error, "Failed to publish match_made event")
		return
	}

	slog.InfoContext(matchCtx, "Room created for matched players. Event published.", "room.id", roomID, "player1.id", player1ID, "player2.id", player2ID)
}
