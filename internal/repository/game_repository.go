package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ctchen222/tictactoe/internal/game"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=game_repository.go -destination=mocks/mock_game_repository.go -package=mocks

const (
	statusInProgress = "in_progress"
	statusFinished   = "finished"
	votePrefix       = "vote:"
)

// GameRepository defines the interface for game data operations.
type GameRepository interface {
	Create(ctx context.Context, roomID, playerXID, playerOID string, mode game.GameMode, difficulty string) error
	FindByID(ctx context.Context, id string) (*game.GameStateDTO, error)
	Update(ctx context.Context, id string, mark game.PlayerMark, row, col int) (*game.GameStateDTO, error)
	Reset(ctx context.Context, id string) (*game.GameStateDTO, error)
	Delete(ctx context.Context, id string) error
	RecordVote(ctx context.Context, roomID, playerID string) error
	GetVotes(ctx context.Context, roomID string) (map[string]bool, error)
	ClearVotes(ctx context.Context, roomID, playerXID, playerOID string) error
}

type redisGameRepository struct {
	rdb *redis.Client
}

// NewGameRepository creates a new Redis-based GameRepository.
func NewGameRepository(rdb *redis.Client) GameRepository {
	return &redisGameRepository{rdb: rdb}
}

func roomKey(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

// Create initializes a new game state in Redis. The first player is picked at random.
func (r *redisGameRepository) Create(ctx context.Context, roomID, playerXID, playerOID string, mode game.GameMode, difficulty string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Create")
	defer span.End()
	span.SetAttributes(attribute.String("room.id", roomID), attribute.String("game.mode", string(mode)))

	g := game.NewGame(mode, difficulty, game.RandomlyChooseFirstPlayer())
	fields, err := stateFields(g.State())
	if err != nil {
		return err
	}
	fields[game.FieldPlayerX] = playerXID
	fields[game.FieldPlayerO] = playerOID

	if err := r.rdb.HSet(ctx, roomKey(roomID), fields).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create game")
		return fmt.Errorf("failed to create game in redis: %w", err)
	}
	return nil
}

// FindByID retrieves the current game state from Redis.
func (r *redisGameRepository) FindByID(ctx context.Context, id string) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.FindByID")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, roomKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game state from redis: %w", err)
	}
	return parseState(id, data)
}

// Update applies a player's move to the game state in Redis. The read-validate-write
// cycle runs in a WATCH transaction so concurrent moves on the same room cannot both land.
func (r *redisGameRepository) Update(ctx context.Context, id string, mark game.PlayerMark, row, col int) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.Update")
	defer span.End()
	span.SetAttributes(
		attribute.String("room.id", id),
		attribute.String("move.mark", string(mark)),
		attribute.Int("move.row", row),
		attribute.Int("move.col", col),
	)

	key := roomKey(id)
	var updated *game.GameStateDTO

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		state, err := parseState(id, data)
		if err != nil {
			return err
		}

		g := game.Restore(state)
		if err := g.MoveAs(mark, row, col); err != nil {
			return err
		}

		next := g.State()
		next.PlayerXID, next.PlayerOID = state.PlayerXID, state.PlayerOID
		fields, err := stateFields(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}

	if err := r.rdb.Watch(ctx, txf, key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "move rejected")
		return nil, fmt.Errorf("failed to apply move to room %s: %w", id, err)
	}

	return updated, nil
}

// Reset starts a new game in the same room with the same players and a new random first player.
func (r *redisGameRepository) Reset(ctx context.Context, id string) (*game.GameStateDTO, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.Reset")
	defer span.End()

	state, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := game.NewGame(state.Mode, state.Difficulty, game.RandomlyChooseFirstPlayer()).State()
	next.PlayerXID, next.PlayerOID = state.PlayerXID, state.PlayerOID
	fields, err := stateFields(next)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.HSet(ctx, roomKey(id), fields).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reset game")
		return nil, fmt.Errorf("failed to reset game in redis: %w", err)
	}
	return next, nil
}

// Delete removes the room's game state and votes.
func (r *redisGameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.Delete")
	defer span.End()

	return r.rdb.Del(ctx, roomKey(id)).Err()
}

// RecordVote records a player's vote for a rematch.
func (r *redisGameRepository) RecordVote(ctx context.Context, roomID, playerID string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.RecordVote")
	defer span.End()

	return r.rdb.HSet(ctx, roomKey(roomID), votePrefix+playerID, "true").Err()
}

// GetVotes returns the players who voted for a rematch.
func (r *redisGameRepository) GetVotes(ctx context.Context, roomID string) (map[string]bool, error) {
	ctx, span := tracer.Start(ctx, "GameRepository.GetVotes")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, roomKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get votes from redis: %w", err)
	}
	votes := make(map[string]bool)
	for field, value := range data {
		if playerID, ok := strings.CutPrefix(field, votePrefix); ok && value == "true" {
			votes[playerID] = true
		}
	}
	return votes, nil
}

// ClearVotes removes rematch votes from Redis.
func (r *redisGameRepository) ClearVotes(ctx context.Context, roomID, playerXID, playerOID string) error {
	ctx, span := tracer.Start(ctx, "GameRepository.ClearVotes")
	defer span.End()

	return r.rdb.HDel(ctx, roomKey(roomID), votePrefix+playerXID, votePrefix+playerOID).Err()
}

func stateFields(s *game.GameStateDTO) (map[string]any, error) {
	boardJSON, err := json.Marshal(s.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}
	status := statusInProgress
	if s.IsOver() {
		status = statusFinished
	}
	return map[string]any{
		game.FieldBoard:      string(boardJSON),
		game.FieldNextTurn:   string(s.CurrentTurn),
		game.FieldWinner:     string(s.Winner),
		game.FieldStatus:     status,
		game.FieldMode:       string(s.Mode),
		game.FieldDifficulty: s.Difficulty,
		game.FieldMoveCount:  s.MoveCount,
	}, nil
}

func parseState(id string, data map[string]string) (*game.GameStateDTO, error) {
	if len(data) == 0 || data[game.FieldBoard] == "" {
		return nil, fmt.Errorf("room %s: %w", id, game.ErrGameNotFound)
	}

	var board game.Board
	if err := json.Unmarshal([]byte(data[game.FieldBoard]), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	moveCount := 0
	if v := data[game.FieldMoveCount]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid move count %q: %w", v, err)
		}
		moveCount = n
	}

	winner := game.PlayerMark(data[game.FieldWinner])
	return &game.GameStateDTO{
		Board:       board,
		CurrentTurn: game.PlayerMark(data[game.FieldNextTurn]),
		Winner:      winner,
		IsDraw:      winner == game.None && game.IsFull(board),
		PlayerXID:   data[game.FieldPlayerX],
		PlayerOID:   data[game.FieldPlayerO],
		Mode:        game.GameMode(data[game.FieldMode]),
		Difficulty:  data[game.FieldDifficulty],
		MoveCount:   moveCount,
	}, nil
}

// IsGameNotFound reports whether err means the room has no game state.
func IsGameNotFound(err error) bool {
	return errors.Is(err, game.ErrGameNotFound)
}
