package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/room"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hub")

// Options configure the rooms created by the hub. Zero values select the defaults.
type Options struct {
	ServerID         string
	MoveTimeout      time.Duration
	ReconnectionWait time.Duration
	BotThinkTime     time.Duration
}

// Hub manages the players connected to this server and the rooms they play in.
type Hub struct {
	opts            Options
	rdb             *redis.Client
	publisher       events.Publisher
	gameRepo        repository.GameRepository
	playerRepo      repository.PlayerRepository
	matchmakingRepo repository.MatchmakingRepository
	calculator      room.MoveCalculator
	scores          room.ScoreRecorder

	mu           sync.Mutex
	localPlayers map[string]*player.Player
	localRooms   map[string]*room.Room

	register   chan *types.RegistrationRequest
	unregister chan *player.Player
}

// NewHub creates a new hub. scores may be nil to skip recording results.
func NewHub(rdb *redis.Client, gameRepo repository.GameRepository, playerRepo repository.PlayerRepository, matchmakingRepo repository.MatchmakingRepository, calculator room.MoveCalculator, scores room.ScoreRecorder, opts Options) *Hub {
	if opts.BotThinkTime < 0 {
		opts.BotThinkTime = bot.DefaultThinkTime
	}
	var publisher events.Publisher
	if rdb != nil {
		publisher = events.NewRedisPublisher(rdb)
	}
	return &Hub{
		opts:            opts,
		rdb:             rdb,
		publisher:       publisher,
		gameRepo:        gameRepo,
		playerRepo:      playerRepo,
		matchmakingRepo: matchmakingRepo,
		calculator:      calculator,
		scores:          scores,
		localPlayers:    make(map[string]*player.Player),
		localRooms:      make(map[string]*room.Room),
		register:        make(chan *types.RegistrationRequest),
		unregister:      make(chan *player.Player),
	}
}

// Run starts the background subscribers and processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.runEventSubscriber(ctx)
		go h.runMatcher(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeRooms()
			slog.InfoContext(ctx, "Hub stopped")
			return

		case req := <-h.register:
			h.handleRegistration(ctx, req)

		case p := <-h.unregister:
			h.handleUnregister(ctx, p)
		}
	}
}

// Register returns the register channel.
func (h *Hub) Register() chan<- *types.RegistrationRequest {
	return h.register
}

// Unregister returns the unregister channel.
func (h *Hub) Unregister() chan<- *player.Player {
	return h.unregister
}

// RoomCount returns the number of rooms running on this server.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.localRooms)
}

func (h *Hub) closeRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, r := range h.localRooms {
		r.Close()
		delete(h.localRooms, id)
	}
}
