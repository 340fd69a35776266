package hub

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// handleRegistration routes a new connection: back into its room, into a bot game,
// or into the matchmaking queue.
func (h *Hub) handleRegistration(ctx context.Context, req *types.RegistrationRequest) {
	reqCtx := ctx
	if req.Ctx != nil {
		reqCtx = req.Ctx
	}
	// Spans link to the request, while rooms live on the hub context.
	_, span := tracer.Start(reqCtx, "hub.handleRegistration", trace.WithAttributes(
		attribute.String("player.id", req.Player.ID),
		attribute.String("game.mode", string(req.Mode)),
	))
	defer span.End()
	ctx = trace.ContextWithSpan(ctx, span)

	if roomID, ok := h.reconnectionRoom(ctx, req.Player.ID); ok {
		h.handleReconnectionRegistration(ctx, req.Player, roomID)
		return
	}

	if req.Mode == game.SinglePlayer {
		h.registerBotGame(ctx, req)
		return
	}
	h.queuePlayerForMatchmaking(ctx, req)
}

// reconnectionRoom returns the room of a disconnected player whose game still exists.
func (h *Hub) reconnectionRoom(ctx context.Context, playerID string) (string, bool) {
	roomID, status, err := h.playerRepo.FindForReconnection(ctx, playerID)
	if err != nil {
		slog.WarnContext(ctx, "Reconnection lookup failed", "player.id", playerID, "error", err)
		return "", false
	}
	if roomID == "" || status != player.StatusDisconnected {
		return "", false
	}
	if _, err := h.gameRepo.FindByID(ctx, roomID); err != nil {
		return "", false
	}
	return roomID, true
}

func (h *Hub) handleReconnectionRegistration(ctx context.Context, p *player.Player, roomID string) {
	ctx, span := tracer.Start(ctx, "hub.handleReconnectionRegistration", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("room.id", roomID),
	))
	defer span.End()

	h.mu.Lock()
	h.localPlayers[p.ID] = p
	existingRoom, ok := h.localRooms[roomID]
	h.mu.Unlock()

	if ok {
		slog.InfoContext(ctx, "Reconnected player added back to existing local room", "player.id", p.ID, "room.id", roomID)
		existingRoom.Reconnect(ctx, p)
		return
	}

	slog.InfoContext(ctx, "Creating new local room handler for reconnected player", "player.id", p.ID, "room.id", roomID)
	newRoom := h.newRoom(roomID, h.opts.MoveTimeout)
	h.startRoom(ctx, newRoom)
	newRoom.Reconnect(ctx, p)
}

func (h *Hub) registerBotGame(ctx context.Context, req *types.RegistrationRequest) {
	ctx, span := tracer.Start(ctx, "hub.registerBotGame", trace.WithAttributes(
		attribute.String("player.id", req.Player.ID),
		attribute.String("bot.difficulty", req.Difficulty),
	))
	defer span.End()

	difficulty, err := bot.ParseDifficulty(req.Difficulty)
	if err != nil {
		difficulty = bot.Low
	}
	slog.InfoContext(ctx, "Creating bot match", "player.id", req.Player.ID, "bot.difficulty", difficulty.String())

	roomID := uuid.New().String()
	newRoom := h.newRoom(roomID, botMoveTimeout(difficulty))

	human := req.Player
	botPlayer, botConn := bot.NewBotPlayer(difficulty, newRoom.IncomingMoves(), h.calculator)
	if h.opts.BotThinkTime > 0 {
		botConn.SetThinkTime(h.opts.BotThinkTime)
	}

	if err := h.gameRepo.Create(ctx, roomID, human.ID, botPlayer.ID, game.SinglePlayer, difficulty.String()); err != nil {
		slog.ErrorContext(ctx, "Failed to create new bot game", "room.id", roomID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create bot game in Redis")
		botConn.Close()
		return
	}
	if err := h.playerRepo.SetInitialState(ctx, human.ID, h.opts.ServerID); err != nil {
		slog.WarnContext(ctx, "Failed to store player state", "player.id", human.ID, "error", err)
	}
	if err := h.playerRepo.UpdateForMatch(ctx, human.ID, roomID); err != nil {
		slog.WarnContext(ctx, "Failed to store player match", "player.id", human.ID, "error", err)
	}

	h.mu.Lock()
	h.localPlayers[human.ID] = human
	h.mu.Unlock()

	newRoom.AddPlayer(human)
	newRoom.AddPlayer(botPlayer)
	h.startRoom(ctx, newRoom)
	slog.InfoContext(ctx, "Local room handler created for bot match", "room.id", roomID)

	newRoom.SendInitialState(ctx, newRoom.Players())
}

// botMoveTimeout gives the human less time against stronger bots.
func botMoveTimeout(d bot.Difficulty) time.Duration {
	switch d {
	case bot.High:
		return 5 * time.Second
	case bot.Low:
		return 15 * time.Second
	default:
		return 10 * time.Second
	}
}

func (h *Hub) queuePlayerForMatchmaking(ctx context.Context, req *types.RegistrationRequest) {
	ctx, span := tracer.Start(ctx, "hub.queuePlayerForMatchmaking", trace.WithAttributes(
		attribute.String("player.id", req.Player.ID),
	))
	defer span.End()

	h.mu.Lock()
	h.localPlayers[req.Player.ID] = req.Player
	h.mu.Unlock()

	if err := h.playerRepo.SetInitialState(ctx, req.Player.ID, h.opts.ServerID); err != nil {
		slog.WarnContext(ctx, "Failed to store player state", "player.id", req.Player.ID, "error", err)
	}

	if err := h.matchmakingRepo.AddToQueue(ctx, req.Player.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to add player to queue", "player.id", req.Player.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to add player to queue")
		return
	}
	slog.InfoContext(ctx, "Player added to matchmaking queue.", "player.id", req.Player.ID)
}

// handleUnregister forgets a player that left for good and closes rooms without humans.
func (h *Hub) handleUnregister(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "hub.handleUnregister", trace.WithAttributes(
		attribute.String("player.id", p.ID),
	))
	defer span.End()

	if err := h.matchmakingRepo.RemoveFromQueue(ctx, p.ID); err != nil {
		slog.WarnContext(ctx, "Failed to remove player from queue", "player.id", p.ID, "error", err)
	}
	if err := h.playerRepo.SetOffline(ctx, p.ID); err != nil {
		slog.WarnContext(ctx, "Failed to mark player offline", "player.id", p.ID, "error", err)
	}

	h.mu.Lock()
	delete(h.localPlayers, p.ID)
	var emptied []string
	for roomID, r := range h.localRooms {
		if !r.HasPlayer(p.ID) {
			continue
		}
		if r.RemovePlayer(p.ID) == 0 {
			r.Close()
			delete(h.localRooms, roomID)
			emptied = append(emptied, roomID)
		}
	}
	h.mu.Unlock()

	for _, roomID := range emptied {
		slog.InfoContext(ctx, "Room closed due to no players", "room.id", roomID)
		state, err := h.gameRepo.FindByID(ctx, roomID)
		if err == nil && state.Mode == game.SinglePlayer {
			if err := h.gameRepo.Delete(ctx, roomID); err != nil {
				slog.WarnContext(ctx, "Failed to delete finished bot game", "room.id", roomID, "error", err)
			}
		}
	}
	slog.InfoContext(ctx, "Player unregistered", "player.id", p.ID)
}
