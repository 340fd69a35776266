package bot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
)

// DefaultThinkTime is the delay before the bot answers an update.
const DefaultThinkTime = 500 * time.Millisecond

// MoveCalculator selects a move for a mark on a board.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty Difficulty) (game.Position, bool)
}

// BotConnection simulates a websocket connection for a bot player.
// It implements the player.Connection interface.
type BotConnection struct {
	playerID      string
	player        *player.Player
	incomingMoves chan<- *types.PlayerMove
	calculator    MoveCalculator
	difficulty    Difficulty
	thinkTime     time.Duration

	mu   sync.Mutex
	mark game.PlayerMark // Stores the bot's mark ('X' or 'O')

	closeOnce sync.Once
	closed    chan struct{}
}

// NewBotConnection creates a new connection for a bot.
func NewBotConnection(playerID string, difficulty Difficulty, p *player.Player, incomingMoves chan<- *types.PlayerMove, calculator MoveCalculator) *BotConnection {
	return &BotConnection{
		playerID:      playerID,
		player:        p,
		incomingMoves: incomingMoves,
		calculator:    calculator,
		difficulty:    difficulty,
		thinkTime:     DefaultThinkTime,
		closed:        make(chan struct{}),
	}
}

// SetThinkTime changes the delay before the bot plays.
func (bc *BotConnection) SetThinkTime(d time.Duration) {
	bc.thinkTime = d
}

// Mark returns the mark assigned to the bot, or None before assignment.
func (bc *BotConnection) Mark() game.PlayerMark {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.mark
}

// WriteMessage is called by the room to send game state to the bot.
func (bc *BotConnection) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}

	var genericMsg map[string]any
	if err := json.Unmarshal(data, &genericMsg); err != nil {
		return err
	}

	msgType, ok := genericMsg["type"].(string)
	if !ok {
		return nil // Not a valid message for the bot
	}

	switch msgType {
	case proto.TypeAssignment:
		var msg proto.PlayerAssignmentMessage
		if err := mapstructure.Decode(genericMsg, &msg); err != nil {
			return err
		}
		bc.mu.Lock()
		bc.mark = msg.Mark
		bc.mu.Unlock()
		slog.Info("Bot assigned mark", "player.id", bc.playerID, "mark", msg.Mark)

	case proto.TypeUpdate:
		var msg proto.ServerToClientMessage
		if err := mapstructure.Decode(genericMsg, &msg); err != nil {
			return err
		}

		mark := bc.Mark()
		if mark == game.None || msg.Next != mark || msg.Winner != game.None || msg.IsDraw {
			return nil
		}
		board, err := game.BoardFromSlice(msg.Board)
		if err != nil {
			return err
		}
		go bc.play(board, mark)
	}

	return nil
}

// play waits for the think time, then queues the bot's move for the room.
func (bc *BotConnection) play(board game.Board, mark game.PlayerMark) {
	slog.Info("Bot is thinking", "player.id", bc.playerID, "mark", mark, "bot.difficulty", bc.difficulty.String())

	select {
	case <-time.After(bc.thinkTime):
	case <-bc.closed:
		return
	}

	pos, ok := bc.calculator.CalculateNextMove(context.Background(), board, mark, bc.difficulty)
	if !ok {
		return
	}

	move := proto.ClientToServerMessage{
		Type:     proto.TypeMove,
		Position: []int{pos.Row, pos.Col},
	}
	moveBytes, err := json.Marshal(move)
	if err != nil {
		slog.Error("Bot failed to marshal move", "player.id", bc.playerID, "error", err)
		return
	}

	select {
	case bc.incomingMoves <- &types.PlayerMove{Player: bc.player, Message: moveBytes}:
	case <-bc.closed:
	}
}

// ReadMessage is never used for bots: moves are pushed straight to the room.
func (bc *BotConnection) ReadMessage() (int, []byte, error) {
	return 0, nil, io.EOF
}

// Close stops any pending move.
func (bc *BotConnection) Close() error {
	bc.closeOnce.Do(func() { close(bc.closed) })
	return nil
}

// NewBotPlayer creates a new player instance that is a bot, wired to a room's move channel.
func NewBotPlayer(difficulty Difficulty, incomingMoves chan<- *types.PlayerMove, calculator MoveCalculator) (*player.Player, *BotConnection) {
	botID := "bot-" + uuid.New().String()[:8]
	p := player.NewPlayer(botID, nil)
	p.IsBot = true
	conn := NewBotConnection(botID, difficulty, p, incomingMoves, calculator)
	p.Conn = conn
	return p, conn
}
