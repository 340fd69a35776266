package room

import (
	"time"

	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
)

// AddPlayer adds a player to the room.
func (r *Room) AddPlayer(p *player.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = append(r.players, p)
}

// RemovePlayer drops a player from the room and reports how many human players remain.
func (r *Room) RemovePlayer(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	humans := 0
	kept := r.players[:0]
	for _, p := range r.players {
		if p.ID == playerID {
			continue
		}
		kept = append(kept, p)
		if !p.IsBot {
			humans++
		}
	}
	r.players = kept
	return humans
}

// Players returns a snapshot of the players in the room.
func (r *Room) Players() []*player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*player.Player, len(r.players))
	copy(out, r.players)
	return out
}

// HasPlayer reports whether a player with the ID is in the room.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// IncomingMoves returns the channel for incoming player moves.
func (r *Room) IncomingMoves() chan<- *types.PlayerMove {
	return r.incomingMoves
}

// localPlayerToMove returns the player on this server whose turn it is.
func (r *Room) localPlayerToMove(s *game.GameStateDTO) (*player.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if s.MarkOf(p.ID) == s.CurrentTurn {
			return p, p.Status == player.StatusConnected
		}
	}
	return nil, false
}

func (r *Room) isConnected(p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return p.Status == player.StatusConnected
}

// markDisconnected flags p as gone if it is still the room's current entry for its ID.
func (r *Room) markDisconnected(p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, current := range r.players {
		if current == p {
			p.MarkDisconnected()
			return true
		}
	}
	return false
}

func (r *Room) expiredPlayers() []*player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*player.Player
	for _, p := range r.players {
		if p.Status == player.StatusDisconnected && time.Since(p.LastSeen) > r.reconnectionWait {
			expired = append(expired, p)
		}
	}
	return expired
}

func (r *Room) connectedPlayers() []*player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*player.Player
	for _, p := range r.players {
		if p.Status == player.StatusConnected && p.Conn != nil {
			out = append(out, p)
		}
	}
	return out
}

// botOpponentOf reports whether p plays against a bot in this room.
func (r *Room) botOpponentOf(p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.players {
		if other.ID != p.ID && other.IsBot {
			return true
		}
	}
	return false
}
