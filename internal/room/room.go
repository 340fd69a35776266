package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/score"

	"go.opentelemetry.io/otel"
)

const (
	heartbeatInterval = 10 * time.Second

	// disconnectedMoveDelay is how long the room waits before playing for a
	// disconnected player whose turn it is.
	disconnectedMoveDelay = 1 * time.Second

	DefaultMoveTimeout      = 15 * time.Second
	DefaultReconnectionWait = 60 * time.Second
)

var tracer = otel.Tracer("room")

// MoveCalculator defines an interface for an agent that can calculate a game move.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty bot.Difficulty) (game.Position, bool)
}

// ScoreRecorder stores finished games.
type ScoreRecorder interface {
	Save(ctx context.Context, r *score.Result) error
}

// Options tune the room timers. Zero values select the defaults.
type Options struct {
	MoveTimeout      time.Duration
	ReconnectionWait time.Duration
}

// Room runs one game for the players connected to this server.
type Room struct {
	ID               string
	publisher        events.Publisher
	gameRepo         repository.GameRepository
	playerRepo       repository.PlayerRepository
	moveCalculator   MoveCalculator
	scores           ScoreRecorder
	moveTimeout      time.Duration
	reconnectionWait time.Duration

	mu       sync.Mutex
	players  []*player.Player
	recorded bool

	incomingMoves chan *types.PlayerMove
	stateChanged  chan struct{}
	done          chan struct{}
	closeOnce     sync.Once
}

// NewRoom creates a new game room. scores may be nil to skip recording results.
func NewRoom(id string, publisher events.Publisher, gameRepo repository.GameRepository, playerRepo repository.PlayerRepository, calculator MoveCalculator, scores ScoreRecorder, opts Options) *Room {
	if opts.MoveTimeout <= 0 {
		opts.MoveTimeout = DefaultMoveTimeout
	}
	if opts.ReconnectionWait <= 0 {
		opts.ReconnectionWait = DefaultReconnectionWait
	}
	return &Room{
		ID:               id,
		publisher:        publisher,
		gameRepo:         gameRepo,
		playerRepo:       playerRepo,
		moveCalculator:   calculator,
		scores:           scores,
		moveTimeout:      opts.MoveTimeout,
		reconnectionWait: opts.ReconnectionWait,
		players:          make([]*player.Player, 0, 2),
		incomingMoves:    make(chan *types.PlayerMove, 10),
		stateChanged:     make(chan struct{}, 1),
		done:             make(chan struct{}),
	}
}

// Start launches the read pumps of human players and the game loop. Players that stay
// disconnected longer than the reconnection wait are sent to unregister.
func (r *Room) Start(ctx context.Context, unregister chan<- *player.Player) {
	for _, p := range r.Players() {
		if !p.IsBot {
			go r.ReadPump(ctx, p)
		}
	}
	go r.run(ctx, unregister)
}

// Close stops the game loop and any pending bot move. It is safe to call more than once.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		for _, p := range r.Players() {
			if p.IsBot && p.Conn != nil {
				p.Conn.Close()
			}
		}
	})
}

// Done is closed once the room stops.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// run is the main game loop for the room.
func (r *Room) run(ctx context.Context, unregister chan<- *player.Player) {
	moveTimer := time.NewTimer(r.moveTimeout)
	pingTicker := time.NewTicker(heartbeatInterval)
	cleanupTicker := time.NewTicker(max(r.reconnectionWait/2, time.Millisecond))

	defer func() {
		moveTimer.Stop()
		pingTicker.Stop()
		cleanupTicker.Stop()
	}()

	for {
		gameState, err := r.gameRepo.FindByID(ctx, r.ID)
		if err != nil {
			slog.ErrorContext(ctx, "run loop cannot get game state, closing room", "room.id", r.ID, "error", err)
			r.Close()
			for _, p := range r.Players() {
				if !p.IsBot {
					r.sendUnregister(ctx, unregister, p)
				}
			}
			return
		}

		currentPlayer, connected := r.localPlayerToMove(gameState)
		moveTimer.Stop()
		if currentPlayer != nil && !gameState.IsOver() {
			if connected {
				moveTimer.Reset(r.moveTimeout)
			} else {
				moveTimer.Reset(disconnectedMoveDelay)
			}
		}

		select {
		case <-r.done:
			slog.InfoContext(ctx, "Room run goroutine stopping.", "room.id", r.ID)
			return

		case <-ctx.Done():
			r.Close()
			return

		case move := <-r.incomingMoves:
			r.HandleMessage(ctx, move.Player, move.Message)

		case <-r.stateChanged:

		case <-moveTimer.C:
			r.proxyMove(ctx, gameState, currentPlayer)

		case <-pingTicker.C:
			r.ping(ctx)

		case <-cleanupTicker.C:
			for _, p := range r.expiredPlayers() {
				slog.InfoContext(ctx, "Player exceeded reconnection grace period. Removing from room.", "player.id", p.ID, "room.id", r.ID)
				r.sendUnregister(ctx, unregister, p)
			}
		}
	}
}

// proxyMove plays a Medium move for a player who let the move timer run out.
func (r *Room) proxyMove(ctx context.Context, gameState *game.GameStateDTO, p *player.Player) {
	if p == nil || gameState.IsOver() {
		return
	}

	slog.InfoContext(ctx, "Player timed out", "player.id", p.ID, "room.id", r.ID)
	pos, ok := r.moveCalculator.CalculateNextMove(ctx, gameState.Board, gameState.CurrentTurn, bot.Medium)
	if !ok {
		return
	}

	slog.InfoContext(ctx, "Proxy move for player", "player.id", p.ID, "row", pos.Row, "col", pos.Col)
	r.applyMove(ctx, p, pos.Row, pos.Col)
}

func (r *Room) sendUnregister(ctx context.Context, unregister chan<- *player.Player, p *player.Player) {
	if unregister == nil {
		return
	}
	select {
	case unregister <- p:
	case <-ctx.Done():
	}
}

// notifyStateChanged wakes the game loop so it re-reads the state and resets its timer.
func (r *Room) notifyStateChanged() {
	select {
	case r.stateChanged <- struct{}{}:
	default:
	}
}
