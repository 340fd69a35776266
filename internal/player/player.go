package player

import (
	"sync"
	"time"
)

// PlayerStatus is the connection status of a player.
type PlayerStatus string

const (
	StatusConnected    PlayerStatus = "connected"
	StatusDisconnected PlayerStatus = "disconnected"
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player represents a player in a room.
type Player struct {
	ID       string
	Conn     Connection
	IsBot    bool
	Status   PlayerStatus
	LastSeen time.Time
}

// NewPlayer creates a connected player.
func NewPlayer(id string, conn Connection) *Player {
	return &Player{
		ID:       id,
		Conn:     conn,
		Status:   StatusConnected,
		LastSeen: time.Now(),
	}
}

// MarkDisconnected records the time the player went away.
func (p *Player) MarkDisconnected() {
	p.Status = StatusDisconnected
	p.LastSeen = time.Now()
}

// lockedConn serializes writes; websocket connections allow only one concurrent writer.
type lockedConn struct {
	Connection
	mu sync.Mutex
}

// NewLockedConn wraps conn so WriteMessage may be called from several goroutines.
func NewLockedConn(conn Connection) Connection {
	return &lockedConn{Connection: conn}
}

func (c *lockedConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Connection.WriteMessage(messageType, data)
}
