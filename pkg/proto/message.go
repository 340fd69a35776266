package proto

import "ctchen222/tictactoe/internal/game"

// Message types exchanged over the websocket.
const (
	TypeMove                 = "move"
	TypeRematch              = "rematch"
	TypeUpdate               = "update"
	TypeAssignment           = "assignment"
	TypeError                = "error"
	TypeOpponentDisconnected = "opponent_disconnected"
	TypeOpponentReconnected  = "opponent_reconnected"
	TypeRematchRequested     = "rematch_requested"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type     string `json:"type" validate:"required,oneof=move rematch"`
	Position []int  `json:"position,omitempty" validate:"omitempty,len=2,dive,min=0,max=2"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type        string              `json:"type" mapstructure:"type" validate:"required"`
	Reason      string              `json:"reason,omitempty" mapstructure:"reason"`
	Board       [][]game.PlayerMark `json:"board,omitempty" mapstructure:"board"`
	Next        game.PlayerMark     `json:"next,omitempty" mapstructure:"next"`
	Winner      game.PlayerMark     `json:"winner,omitempty" mapstructure:"winner"`
	IsDraw      bool                `json:"isDraw,omitempty" mapstructure:"isDraw"`
	WinningLine []game.Position     `json:"winningLine,omitempty" mapstructure:"winningLine"`
}

// PlayerAssignmentMessage informs a player of their assigned mark.
type PlayerAssignmentMessage struct {
	Type     string          `json:"type" mapstructure:"type"`
	PlayerID string          `json:"playerId,omitempty" mapstructure:"playerId"`
	RoomID   string          `json:"roomId,omitempty" mapstructure:"roomId"`
	Mark     game.PlayerMark `json:"mark" mapstructure:"mark"`
}
