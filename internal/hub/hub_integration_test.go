package hub

import (
	"context"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

// boardCell reads one cell from a decoded update message.
func boardCell(m map[string]any, row, col int) string {
	board, ok := m["board"].([]any)
	if !ok || len(board) != 3 {
		return ""
	}
	cells, ok := board[row].([]any)
	if !ok || len(cells) != 3 {
		return ""
	}
	s, _ := cells[col].(string)
	return s
}

func (c *fakeConn) lastUpdate() (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.written) - 1; i >= 0; i-- {
		if c.written[i]["type"] == proto.TypeUpdate {
			return c.written[i], true
		}
	}
	return nil, false
}

func TestMatchmakingAcrossRedis(t *testing.T) {
	rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(rdb,
		repository.NewGameRepository(rdb),
		repository.NewPlayerRepository(rdb),
		repository.NewMatchmakingRepository(rdb),
		stubCalculator{}, nil,
		Options{ServerID: "server-a", MoveTimeout: time.Minute},
	)
	go h.Run(ctx)

	// The match_made event is only seen once the hub listens on the events channel.
	require.Eventually(t, func() bool {
		subs, err := rdb.PubSubNumSub(ctx, events.EventsChannel).Result()
		return err == nil && subs[events.EventsChannel] > 0
	}, 5*time.Second, 20*time.Millisecond)

	connA, connB := newFakeConn(), newFakeConn()
	defer close(connA.reads)
	defer close(connB.reads)
	conns := map[string]*fakeConn{"a": connA, "b": connB}

	h.Register() <- &types.RegistrationRequest{Player: player.NewPlayer("a", connA), PlayerID: "a", Mode: game.TwoPlayer}
	h.Register() <- &types.RegistrationRequest{Player: player.NewPlayer("b", connB), PlayerID: "b", Mode: game.TwoPlayer}

	marks := map[string]string{}
	require.Eventually(t, func() bool {
		for id, c := range conns {
			m, ok := c.find(proto.TypeAssignment)
			if !ok {
				return false
			}
			marks[id], _ = m["mark"].(string)
		}
		return true
	}, 10*time.Second, 50*time.Millisecond)
	assert.ElementsMatch(t, []string{"X", "O"}, []string{marks["a"], marks["b"]})
	assert.Equal(t, 1, h.RoomCount())

	var update map[string]any
	require.Eventually(t, func() bool {
		var ok bool
		update, ok = connA.lastUpdate()
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	var mover string
	for id, mark := range marks {
		if mark == update["next"] {
			mover = id
		}
	}
	require.NotEmpty(t, mover)
	conns[mover].reads <- []byte(`{"type":"move","position":[1,1]}`)

	for id, c := range conns {
		assert.Eventually(t, func() bool {
			m, ok := c.lastUpdate()
			return ok && boardCell(m, 1, 1) == marks[mover]
		}, 5*time.Second, 50*time.Millisecond, "player %s never saw the move", id)
	}
}
