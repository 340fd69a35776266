package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=matchmaking_repository.go -destination=mocks/mock_matchmaking_repository.go -package=mocks

const (
	matchmakingQueueKey = "queue:matchmaking"
	popTimeout          = time.Second
)

// MatchmakingRepository defines the interface for matchmaking queue operations.
type MatchmakingRepository interface {
	AddToQueue(ctx context.Context, playerID string) error
	GetPlayersFromQueue(ctx context.Context) (player1ID, player2ID string, err error)
	RemoveFromQueue(ctx context.Context, playerID string) error
	QueueLength(ctx context.Context) (int64, error)
}

type redisMatchmakingRepository struct {
	rdb *redis.Client
}

// NewMatchmakingRepository creates a new Redis-based MatchmakingRepository.
func NewMatchmakingRepository(rdb *redis.Client) MatchmakingRepository {
	return &redisMatchmakingRepository{rdb: rdb}
}

// AddToQueue adds a player to the matchmaking queue.
func (r *redisMatchmakingRepository) AddToQueue(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "MatchmakingRepository.AddToQueue")
	defer span.End()

	return r.rdb.RPush(ctx, matchmakingQueueKey, playerID).Err()
}

// GetPlayersFromQueue blocks until two players are available in the queue and returns them.
// It returns ctx.Err() once ctx is done; a player already taken is put back at the head.
func (r *redisMatchmakingRepository) GetPlayersFromQueue(ctx context.Context) (string, string, error) {
	ctx, span := tracer.Start(ctx, "MatchmakingRepository.GetPlayersFromQueue")
	defer span.End()

	// Block until one player is available
	player1ID, err := r.pop(ctx)
	if err != nil {
		return "", "", err
	}
	slog.InfoContext(ctx, "Matcher found player 1, waiting for player 2...", "player.id", player1ID)

	// Block until a second player is available
	player2ID, err := r.pop(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Matcher error on player 2, re-queuing player 1", "player.id", player1ID, "error", err)
		if requeueErr := r.rdb.LPush(context.WithoutCancel(ctx), matchmakingQueueKey, player1ID).Err(); requeueErr != nil {
			slog.ErrorContext(ctx, "FATAL: Failed to re-queue player", "player.id", player1ID, "error", requeueErr)
		}
		return "", "", err
	}
	slog.InfoContext(ctx, "Matcher found player 2. Creating match...", "player.id", player2ID)

	return player1ID, player2ID, nil
}

// pop waits for the head of the queue in short BLPOP rounds so cancellation is noticed.
func (r *redisMatchmakingRepository) pop(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := r.rdb.BLPop(ctx, popTimeout, matchmakingQueueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
		return res[1], nil
	}
}

// RemoveFromQueue removes a specific player from the queue.
func (r *redisMatchmakingRepository) RemoveFromQueue(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "MatchmakingRepository.RemoveFromQueue")
	defer span.End()

	// LRem removes count occurrences of value from the list.
	// If count is 0, all occurrences are removed.
	return r.rdb.LRem(ctx, matchmakingQueueKey, 0, playerID).Err()
}

// QueueLength returns the number of players waiting for a match.
func (r *redisMatchmakingRepository) QueueLength(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "MatchmakingRepository.QueueLength")
	defer span.End()

	return r.rdb.LLen(ctx, matchmakingQueueKey).Result()
}
