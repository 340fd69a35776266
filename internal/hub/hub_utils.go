package hub

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/room"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (h *Hub) newRoom(roomID string, moveTimeout time.Duration) *room.Room {
	return room.NewRoom(roomID, h.publisher, h.gameRepo, h.playerRepo, h.calculator, h.scores, room.Options{
		MoveTimeout:      moveTimeout,
		ReconnectionWait: h.opts.ReconnectionWait,
	})
}

// startRoom registers the room locally and starts its loop and update subscriber.
func (h *Hub) startRoom(ctx context.Context, r *room.Room) {
	h.mu.Lock()
	h.localRooms[r.ID] = r
	h.mu.Unlock()

	if h.rdb != nil {
		pubsub, err := h.subscribeRoom(ctx, r)
		if err != nil {
			slog.ErrorContext(ctx, "Room will not receive updates", "room.id", r.ID, "error", err)
		} else {
			go h.runRoomUpdateSubscriber(ctx, r, pubsub)
		}
	}
	r.Start(ctx, h.unregister)
}

// createAndStartRoom is a helper to create a room for matched players and start its goroutines.
func (h *Hub) createAndStartRoom(ctx context.Context, roomID string, localPlayers []*player.Player) {
	ctx, span := tracer.Start(ctx, "hub.createAndStartRoom", trace.WithAttributes(
		attribute.String("room.id", roomID),
		attribute.Int("local_players.count", len(localPlayers)),
	))
	defer span.End()

	newRoom := h.newRoom(roomID, h.opts.MoveTimeout)
	for _, p := range localPlayers {
		newRoom.AddPlayer(p)
	}
	h.startRoom(ctx, newRoom)
	newRoom.SendInitialState(ctx, localPlayers)
}

func (h *Hub) localRoom(roomID string) (*room.Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.localRooms[roomID]
	return r, ok
}

func (h *Hub) localPlayer(playerID string) (*player.Player, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.localPlayers[playerID]
	return p, ok
}
