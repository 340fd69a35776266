package repository

import (
	"context"
	"fmt"
	"time"

	"ctchen222/tictactoe/internal/player"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=player_repository.go -destination=mocks/mock_player_repository.go -package=mocks

// Player presence values stored in the "status" field.
const (
	PresenceWaiting = "waiting"
	PresenceInGame  = "in_game"
	PresenceOffline = "offline"
)

// PlayerState is the persisted presence of a player.
type PlayerState struct {
	ServerID         string
	RoomID           string
	Presence         string
	ConnectionStatus player.PlayerStatus
}

// PlayerRepository defines the interface for player data operations.
type PlayerRepository interface {
	FindForReconnection(ctx context.Context, id string) (roomID string, status player.PlayerStatus, err error)
	UpdateConnectionStatus(ctx context.Context, id string, status player.PlayerStatus) error
	SetInitialState(ctx context.Context, id, serverID string) error
	UpdateForMatch(ctx context.Context, id, roomID string) error
	SetOffline(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (*PlayerState, error)
	Delete(ctx context.Context, id string) error
}

type redisPlayerRepository struct {
	rdb *redis.Client
}

// playerTTL bounds how long an abandoned presence record lives.
const playerTTL = 24 * time.Hour

// NewPlayerRepository creates a new Redis-based PlayerRepository.
func NewPlayerRepository(rdb *redis.Client) PlayerRepository {
	return &redisPlayerRepository{
		rdb: rdb,
	}
}

// FindForReconnection retrieves the necessary data for a player to reconnect.
func (r *redisPlayerRepository) FindForReconnection(ctx context.Context, id string) (string, player.PlayerStatus, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.FindForReconnection")
	defer span.End()

	state, err := r.Find(ctx, id)
	if err != nil {
		return "", "", err
	}
	if state == nil {
		return "", "", nil
	}
	return state.RoomID, state.ConnectionStatus, nil
}

// UpdateConnectionStatus updates only the connection status of a player.
func (r *redisPlayerRepository) UpdateConnectionStatus(ctx context.Context, id string, status player.PlayerStatus) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.UpdateConnectionStatus")
	defer span.End()

	key := playerKey(id)
	return r.rdb.HSet(ctx, key, "connection_status", string(status)).Err()
}

// SetInitialState sets the initial data for a newly registered player.
func (r *redisPlayerRepository) SetInitialState(ctx context.Context, id, serverID string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.SetInitialState")
	defer span.End()

	key := playerKey(id)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, "server_id", serverID)
	pipe.HSet(ctx, key, "status", PresenceWaiting)
	pipe.HDel(ctx, key, "room_id")
	pipe.Expire(ctx, key, playerTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// UpdateForMatch updates a player's state when they are put into a match.
func (r *redisPlayerRepository) UpdateForMatch(ctx context.Context, id, roomID string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.UpdateForMatch")
	defer span.End()

	key := playerKey(id)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, "room_id", roomID)
	pipe.HSet(ctx, key, "status", PresenceInGame)
	pipe.HSet(ctx, key, "connection_status", string(player.StatusConnected))
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline marks a player as offline, typically during unregistration.
func (r *redisPlayerRepository) SetOffline(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.SetOffline")
	defer span.End()

	key := playerKey(id)
	return r.rdb.HSet(ctx, key, "status", PresenceOffline).Err()
}

// Find returns the stored presence of a player, or nil when the player is unknown.
func (r *redisPlayerRepository) Find(ctx context.Context, id string) (*PlayerState, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.Find")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, playerKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &PlayerState{
		ServerID:         data["server_id"],
		RoomID:           data["room_id"],
		Presence:         data["status"],
		ConnectionStatus: player.PlayerStatus(data["connection_status"]),
	}, nil
}

// Delete removes the player's presence.
func (r *redisPlayerRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.Delete")
	defer span.End()

	return r.rdb.Del(ctx, playerKey(id)).Err()
}

func playerKey(id string) string {
	return fmt.Sprintf("player:%s", id)
}
