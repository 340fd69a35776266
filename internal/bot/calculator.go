package bot

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("bot")
	meter  = otel.Meter("bot")
)

// BotMoveCalculator implements the room.MoveCalculator interface on top of an Engine.
type BotMoveCalculator struct {
	engine         *Engine
	moves          metric.Int64Counter
	searchDuration metric.Float64Histogram
}

// NewMoveCalculator wraps engine with tracing and metrics.
func NewMoveCalculator(engine *Engine) *BotMoveCalculator {
	if engine == nil {
		engine = NewEngine(nil)
	}

	moves, err := meter.Int64Counter("bot.moves",
		metric.WithDescription("Moves selected by the bot"),
	)
	if err != nil {
		slog.Warn("failed to create bot.moves counter", "error", err)
	}
	searchDuration, err := meter.Float64Histogram("bot.search.duration",
		metric.WithDescription("Time spent selecting a bot move"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		slog.Warn("failed to create bot.search.duration histogram", "error", err)
	}

	return &BotMoveCalculator{
		engine:         engine,
		moves:          moves,
		searchDuration: searchDuration,
	}
}

// CalculateNextMove determines the bot's next move based on the specified difficulty.
func (c *BotMoveCalculator) CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty Difficulty) (game.Position, bool) {
	ctx, span := tracer.Start(ctx, "bot.CalculateNextMove", trace.WithAttributes(
		attribute.String("bot.mark", string(mark)),
		attribute.String("bot.difficulty", difficulty.String()),
		attribute.Int("board.legal_moves", len(game.LegalMoves(board))),
	))
	defer span.End()

	start := time.Now()
	pos, ok := c.engine.SelectMove(board, mark, difficulty)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	attrs := metric.WithAttributes(
		attribute.String("bot.difficulty", difficulty.String()),
		attribute.Bool("move.found", ok),
	)
	if c.moves != nil {
		c.moves.Add(ctx, 1, attrs)
	}
	if c.searchDuration != nil {
		c.searchDuration.Record(ctx, elapsed, attrs)
	}

	span.SetAttributes(attribute.Bool("move.found", ok))
	if ok {
		span.SetAttributes(attribute.Int("move.row", pos.Row), attribute.Int("move.col", pos.Col))
	}
	slog.DebugContext(ctx, "Bot selected move", "bot.mark", mark, "bot.difficulty", difficulty.String(), "move", pos.String(), "found", ok)
	return pos, ok
}
