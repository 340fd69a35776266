package score

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=repository.go -destination=mock_repository_test.go -package=score

// Repository stores game results.
type Repository interface {
	Insert(ctx context.Context, r *Result) error
	// ListByPlayer returns the newest results first. A limit <= 0 returns all of them.
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]Result, error)
	// Prune deletes all but the newest keep results of a player.
	Prune(ctx context.Context, playerID string, keep int) error
	DeleteByPlayer(ctx context.Context, playerID string) (int64, error)
}

type sqliteRepository struct {
	db *sqlx.DB
}

// NewRepository creates a SQLite-based Repository.
func NewRepository(db *sqlx.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Insert(ctx context.Context, res *Result) error {
	ctx, span := tracer.Start(ctx, "ScoreRepository.Insert")
	defer span.End()

	query := `INSERT INTO game_results (id, player_id, mark, mode, outcome, winner, difficulty, move_count, played_at)
		VALUES (:id, :player_id, :mark, :mode, :outcome, :winner, :difficulty, :move_count, :played_at)`
	if _, err := r.db.NamedExecContext(ctx, query, res); err != nil {
		return fmt.Errorf("failed to insert game result: %w", err)
	}
	return nil
}

func (r *sqliteRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.ListByPlayer")
	defer span.End()

	query := `SELECT id, player_id, mark, mode, outcome, winner, difficulty, move_count, played_at
		FROM game_results WHERE player_id = ? ORDER BY played_at DESC, rowid DESC`
	args := []any{playerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	results := []Result{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list game results: %w", err)
	}
	return results, nil
}

func (r *sqliteRepository) Prune(ctx context.Context, playerID string, keep int) error {
	ctx, span := tracer.Start(ctx, "ScoreRepository.Prune")
	defer span.End()

	query := `DELETE FROM game_results WHERE player_id = ? AND id NOT IN (
		SELECT id FROM game_results WHERE player_id = ? ORDER BY played_at DESC, rowid DESC LIMIT ?)`
	if _, err := r.db.ExecContext(ctx, query, playerID, playerID, keep); err != nil {
		return fmt.Errorf("failed to prune game results: %w", err)
	}
	return nil
}

func (r *sqliteRepository) DeleteByPlayer(ctx context.Context, playerID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.DeleteByPlayer")
	defer span.End()

	res, err := r.db.ExecContext(ctx, `DELETE FROM game_results WHERE player_id = ?`, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete game results: %w", err)
	}
	return res.RowsAffected()
}
