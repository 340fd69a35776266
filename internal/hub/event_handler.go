package hub

import (
	"context"
	"log/slog"

	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/player"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (h *Hub) runEventSubscriber(ctx context.Context) {
	slog.InfoContext(ctx, "Event subscriber started", "channel", events.EventsChannel)
	pubsub := h.rdb.Subscribe(ctx, events.EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleEvent(ctx, msg.Payload)
		}
	}
}

// handleEvent dispatches one message received on the global events channel.
func (h *Hub) handleEvent(ctx context.Context, raw string) {
	ctx, span := tracer.Start(ctx, "hub.handleEvent", trace.WithAttributes(
		attribute.String("event.channel", events.EventsChannel),
	))
	defer span.End()

	event, err := events.Decode(raw)
	if err != nil {
		slog.ErrorContext(ctx, "Could not unmarshal global event", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not unmarshal global event")
		return
	}
	span.SetAttributes(attribute.String("event.type", event.Type))

	switch event.Type {
	case events.TypeMatchMade:
		var payload events.MatchMadePayload
		if h.decode(ctx, span, event, &payload) {
			h.handleMatchMade(ctx, &payload)
		}

	case events.TypePlayerDisconnected:
		var payload events.PlayerDisconnectedPayload
		if h.decode(ctx, span, event, &payload) {
			if r, ok := h.localRoom(payload.RoomID); ok {
				r.HandleOpponentDisconnected(ctx, payload.PlayerID)
			}
		}

	case events.TypePlayerReconnected:
		var payload events.PlayerReconnectedPayload
		if h.decode(ctx, span, event, &payload) {
			if r, ok := h.localRoom(payload.RoomID); ok {
				r.HandleOpponentReconnected(ctx, payload.PlayerID)
			}
		}

	case events.TypeRematchRequested:
		var payload events.RematchRequestedPayload
		if h.decode(ctx, span, event, &payload) {
			if r, ok := h.localRoom(payload.RoomID); ok {
				r.HandleRematchRequested(ctx, payload.PlayerID)
			}
		}

	case events.TypeRematchSuccessful:
		var payload events.RematchSuccessfulPayload
		if h.decode(ctx, span, event, &payload) {
			if r, ok := h.localRoom(payload.RoomID); ok {
				// Resend assignments and initial state to all players in the room
				r.SendInitialState(ctx, r.Players())
			}
		}

	default:
		slog.WarnContext(ctx, "Unknown event type", "event.type", event.Type)
	}
}

func (h *Hub) decode(ctx context.Context, span trace.Span, event *events.Event, out any) bool {
	if err := event.DecodePayload(out); err != nil {
		slog.ErrorContext(ctx, "Could not unmarshal event payload", "event.type", event.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not unmarshal event payload")
		return false
	}
	return true
}

func (h *Hub) handleMatchMade(ctx context.Context, payload *events.MatchMadePayload) {
	ctx, span := tracer.Start(ctx, "hub.handleMatchMade", trace.WithAttributes(
		attribute.String("room.id", payload.RoomID),
		attribute.Int("player.count", len(payload.PlayerIDs)),
	))
	defer span.End()

	slog.InfoContext(ctx, "Received match_made event", "room.id", payload.RoomID)

	var localPlayersInRoom []*player.Player
	for _, playerID := range payload.PlayerIDs {
		if p, isLocal := h.localPlayer(playerID); isLocal {
			localPlayersInRoom = append(localPlayersInRoom, p)
		}
	}

	if len(localPlayersInRoom) > 0 {
		slog.InfoContext(ctx, "Found local players for room, creating handler", "local_players.count", len(localPlayersInRoom), "room.id", payload.RoomID)
		h.createAndStartRoom(ctx, payload.RoomID, localPlayersInRoom)
	}
}
