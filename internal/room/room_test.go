package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository/mocks"
	"ctchen222/tictactoe/internal/score"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	reads   chan []byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan []byte, 4)}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.reads
	if !ok {
		return 0, nil, io.EOF
	}
	return websocket.TextMessage, msg, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// messages decodes every text frame written so far as a generic map.
func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.written))
	for _, raw := range c.written {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) last(t *testing.T) map[string]any {
	t.Helper()
	msgs := c.messages(t)
	require.NotEmpty(t, msgs, "no message written")
	return msgs[len(msgs)-1]
}

type published struct {
	channel string
	message any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{channel, message})
	return nil
}

func (p *fakePublisher) eventTypes(t *testing.T) []string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, s := range p.sent {
		if s.channel != events.EventsChannel {
			continue
		}
		raw, ok := s.message.([]byte)
		require.True(t, ok)
		e, err := events.Decode(string(raw))
		require.NoError(t, err)
		types = append(types, e.Type)
	}
	return types
}

type fakeScores struct {
	mu      sync.Mutex
	results []*score.Result
}

func (s *fakeScores) Save(_ context.Context, r *score.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

type fixedCalculator struct {
	pos game.Position
	got bot.Difficulty
}

func (c *fixedCalculator) CalculateNextMove(_ context.Context, _ game.Board, _ game.PlayerMark, d bot.Difficulty) (game.Position, bool) {
	c.got = d
	return c.pos, true
}

type fixture struct {
	room       *Room
	gameRepo   *mocks.MockGameRepository
	playerRepo *mocks.MockPlayerRepository
	publisher  *fakePublisher
	scores     *fakeScores
	calculator *fixedCalculator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		gameRepo:   mocks.NewMockGameRepository(ctrl),
		playerRepo: mocks.NewMockPlayerRepository(ctrl),
		publisher:  &fakePublisher{},
		scores:     &fakeScores{},
		calculator: &fixedCalculator{pos: game.Position{Row: 2, Col: 2}},
	}
	f.room = NewRoom("r1", f.publisher, f.gameRepo, f.playerRepo, f.calculator, f.scores, Options{})
	return f
}

func addHuman(r *Room, id string) (*player.Player, *fakeConn) {
	conn := newFakeConn()
	p := player.NewPlayer(id, conn)
	r.AddPlayer(p)
	return p, conn
}

func inProgress() *game.GameStateDTO {
	return &game.GameStateDTO{
		CurrentTurn: game.PlayerX,
		PlayerXID:   "px",
		PlayerOID:   "po",
		Mode:        game.TwoPlayer,
	}
}

func wonByX() *game.GameStateDTO {
	s := inProgress()
	s.Board = game.Board{
		{game.PlayerX, game.PlayerX, game.PlayerX},
		{game.PlayerO, game.PlayerO, game.None},
		{game.None, game.None, game.None},
	}
	s.Winner = game.PlayerX
	s.MoveCount = 5
	return s
}

func TestHandleMoveAppliesAndPublishes(t *testing.T) {
	f := newFixture(t)
	px, _ := addHuman(f.room, "px")
	ctx := context.Background()

	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(inProgress(), nil)
	f.gameRepo.EXPECT().Update(gomock.Any(), "r1", game.PlayerX, 1, 1).Return(inProgress(), nil)

	f.room.HandleMessage(ctx, px, []byte(`{"type":"move","position":[1,1]}`))

	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, events.RoomChannel("r1"), f.publisher.sent[0].channel)
	assert.Equal(t, events.RoomUpdate, f.publisher.sent[0].message)
}

func TestHandleMoveErrors(t *testing.T) {
	tests := []struct {
		name      string
		playerID  string
		message   string
		updateErr error
		wantCall  bool
		reason    string
	}{
		{"not json", "px", `move 1 1`, nil, false, ReasonInvalidMessage},
		{"unknown type", "px", `{"type":"chat"}`, nil, false, ReasonInvalidMessage},
		{"out of range position", "px", `{"type":"move","position":[3,0]}`, nil, false, ReasonInvalidMessage},
		{"missing position", "px", `{"type":"move"}`, nil, false, ReasonInvalidMessage},
		{"not in room", "stranger", `{"type":"move","position":[0,0]}`, nil, false, ReasonNotInRoom},
		{"wrong turn", "po", `{"type":"move","position":[0,0]}`, game.ErrNotYourTurn, true, ReasonNotYourTurn},
		{"occupied", "px", `{"type":"move","position":[0,0]}`, game.ErrIllegalMove, true, ReasonCellOccupied},
		{"game over", "px", `{"type":"move","position":[0,0]}`, game.ErrGameOver, true, ReasonGameOver},
		{"storage failure", "px", `{"type":"move","position":[0,0]}`, errors.New("redis down"), true, ReasonServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p, conn := addHuman(f.room, tt.playerID)

			needsState := tt.wantCall || tt.reason == ReasonNotInRoom
			if needsState {
				f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(inProgress(), nil)
			}
			if tt.wantCall {
				f.gameRepo.EXPECT().Update(gomock.Any(), "r1", gomock.Any(), 0, 0).
					Return(nil, fmt.Errorf("failed to apply move: %w", tt.updateErr))
			}

			f.room.HandleMessage(context.Background(), p, []byte(tt.message))

			msg := conn.last(t)
			if msg["type"] != proto.TypeError || msg["reason"] != tt.reason {
				t.Errorf("HandleMessage() sent = %v, want error %q", msg, tt.reason)
			}
			assert.Empty(t, f.publisher.sent)
		})
	}
}

func TestHandleMessageIgnoresDisconnectedPlayer(t *testing.T) {
	f := newFixture(t)
	px, conn := addHuman(f.room, "px")
	px.MarkDisconnected()

	f.room.HandleMessage(context.Background(), px, []byte(`{"type":"move","position":[0,0]}`))

	assert.Empty(t, conn.messages(t))
	assert.Empty(t, f.publisher.sent)
}

func TestRematchBeforeGameOver(t *testing.T) {
	f := newFixture(t)
	px, conn := addHuman(f.room, "px")
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(inProgress(), nil)

	f.room.HandleMessage(context.Background(), px, []byte(`{"type":"rematch"}`))

	assert.Equal(t, ReasonGameNotOver, conn.last(t)["reason"])
}

func TestRematchAgainstBotResetsImmediately(t *testing.T) {
	f := newFixture(t)
	px, _ := addHuman(f.room, "px")
	botPlayer, botConn := bot.NewBotPlayer(bot.High, f.room.IncomingMoves(), f.calculator)
	defer botConn.Close()
	f.room.AddPlayer(botPlayer)

	state := wonByX()
	state.PlayerOID = botPlayer.ID
	gomock.InOrder(
		f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(state, nil),
		f.gameRepo.EXPECT().RecordVote(gomock.Any(), "r1", "px").Return(nil),
		f.gameRepo.EXPECT().Reset(gomock.Any(), "r1").Return(inProgress(), nil),
		f.gameRepo.EXPECT().ClearVotes(gomock.Any(), "r1", "px", botPlayer.ID).Return(nil),
	)

	f.room.HandleMessage(context.Background(), px, []byte(`{"type":"rematch"}`))

	assert.Equal(t, []string{events.TypeRematchSuccessful}, f.publisher.eventTypes(t))
}

func TestRematchNeedsBothVotes(t *testing.T) {
	f := newFixture(t)
	px, _ := addHuman(f.room, "px")
	po, _ := addHuman(f.room, "po")
	ctx := context.Background()

	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(wonByX(), nil).Times(2)
	f.gameRepo.EXPECT().RecordVote(gomock.Any(), "r1", gomock.Any()).Return(nil).Times(2)
	gomock.InOrder(
		f.gameRepo.EXPECT().GetVotes(gomock.Any(), "r1").Return(map[string]bool{"px": true}, nil),
		f.gameRepo.EXPECT().GetVotes(gomock.Any(), "r1").Return(map[string]bool{"px": true, "po": true}, nil),
	)
	f.gameRepo.EXPECT().Reset(gomock.Any(), "r1").Return(inProgress(), nil)
	f.gameRepo.EXPECT().ClearVotes(gomock.Any(), "r1", "px", "po").Return(nil)

	f.room.HandleMessage(ctx, px, []byte(`{"type":"rematch"}`))
	assert.Equal(t, []string{events.TypeRematchRequested}, f.publisher.eventTypes(t))

	f.room.HandleMessage(ctx, po, []byte(`{"type":"rematch"}`))
	assert.Equal(t, []string{events.TypeRematchRequested, events.TypeRematchSuccessful}, f.publisher.eventTypes(t))
}

func TestHandleUpdateBroadcastsAndRecordsOnce(t *testing.T) {
	f := newFixture(t)
	_, connX := addHuman(f.room, "px")
	_, connO := addHuman(f.room, "po")
	ctx := context.Background()

	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(wonByX(), nil).Times(2)

	f.room.HandleUpdate(ctx)
	f.room.HandleUpdate(ctx)

	for _, conn := range []*fakeConn{connX, connO} {
		msg := conn.last(t)
		assert.Equal(t, proto.TypeUpdate, msg["type"])
		assert.Equal(t, "X", msg["winner"])
		assert.Len(t, msg["winningLine"], 3)
	}

	require.Len(t, f.scores.results, 2)
	byPlayer := map[string]score.Outcome{}
	for _, r := range f.scores.results {
		byPlayer[r.PlayerID] = r.Outcome
		assert.Equal(t, 5, r.MoveCount)
	}
	assert.Equal(t, map[string]score.Outcome{"px": score.OutcomeWin, "po": score.OutcomeLoss}, byPlayer)
}

func TestHandleUpdateSkipsBotResults(t *testing.T) {
	f := newFixture(t)
	addHuman(f.room, "px")
	botPlayer, botConn := bot.NewBotPlayer(bot.Low, f.room.IncomingMoves(), f.calculator)
	defer botConn.Close()
	f.room.AddPlayer(botPlayer)

	state := wonByX()
	state.PlayerOID = botPlayer.ID
	state.Mode = game.SinglePlayer
	state.Difficulty = "easy"
	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(state, nil)

	f.room.HandleUpdate(context.Background())

	require.Len(t, f.scores.results, 1)
	assert.Equal(t, "px", f.scores.results[0].PlayerID)
	assert.Equal(t, "easy", f.scores.results[0].Difficulty)
}

func TestProxyMoveUsesMedium(t *testing.T) {
	f := newFixture(t)
	px, _ := addHuman(f.room, "px")

	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(inProgress(), nil)
	f.gameRepo.EXPECT().Update(gomock.Any(), "r1", game.PlayerX, 2, 2).Return(inProgress(), nil)

	f.room.proxyMove(context.Background(), inProgress(), px)

	assert.Equal(t, bot.Medium, f.calculator.got)
	require.Len(t, f.publisher.sent, 1)
}

func TestProxyMoveSkipsFinishedGame(t *testing.T) {
	f := newFixture(t)
	px, _ := addHuman(f.room, "px")

	f.room.proxyMove(context.Background(), wonByX(), px)

	assert.Empty(t, f.publisher.sent)
}

func TestSendInitialState(t *testing.T) {
	f := newFixture(t)
	px, connX := addHuman(f.room, "px")
	_, connO := addHuman(f.room, "po")

	f.gameRepo.EXPECT().FindByID(gomock.Any(), "r1").Return(inProgress(), nil)

	f.room.SendInitialState(context.Background(), []*player.Player{px})

	msgsX := connX.messages(t)
	require.Len(t, msgsX, 2)
	assert.Equal(t, proto.TypeAssignment, msgsX[0]["type"])
	assert.Equal(t, "X", msgsX[0]["mark"])
	assert.Equal(t, "r1", msgsX[0]["roomId"])
	assert.Equal(t, proto.TypeUpdate, msgsX[1]["type"])

	msgsO := connO.messages(t)
	require.Len(t, msgsO, 1)
	assert.Equal(t, proto.TypeUpdate, msgsO[0]["type"])
}

func TestReadPumpDisconnect(t *testing.T) {
	f := newFixture(t)
	px, conn := addHuman(f.room, "px")

	f.playerRepo.EXPECT().UpdateConnectionStatus(gomock.Any(), "px", player.StatusDisconnected).Return(nil)

	conn.reads <- []byte(`{"type":"move","position":[0,0]}`)
	close(conn.reads)

	done := make(chan struct{})
	go func() {
		f.room.ReadPump(context.Background(), px)
		close(done)
	}()

	select {
	case move := <-f.room.incomingMoves:
		assert.Equal(t, px, move.Player)
	case <-time.After(time.Second):
		t.Fatal("ReadPump() did not forward the message")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReadPump() did not return after the connection closed")
	}

	assert.False(t, f.room.isConnected(px))
	assert.True(t, conn.closed)
	assert.Equal(t, []string{events.TypePlayerDisconnected}, f.publisher.eventTypes(t))
}

func TestOpponentNotices(t *testing.T) {
	f := newFixture(t)
	_, connX := addHuman(f.room, "px")
	_, connO := addHuman(f.room, "po")
	ctx := context.Background()

	f.room.HandleOpponentDisconnected(ctx, "po")
	f.room.HandleRematchRequested(ctx, "po")

	msgs := connX.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, proto.TypeOpponentDisconnected, msgs[0]["type"])
	assert.Equal(t, proto.TypeRematchRequested, msgs[1]["type"])
	assert.Empty(t, connO.messages(t))
}

func TestRemovePlayer(t *testing.T) {
	f := newFixture(t)
	addHuman(f.room, "px")
	addHuman(f.room, "po")

	assert.Equal(t, 1, f.room.RemovePlayer("px"))
	assert.False(t, f.room.HasPlayer("px"))
	assert.Equal(t, 0, f.room.RemovePlayer("po"))
}
