package score

import (
	"time"

	"ctchen222/tictactoe/internal/game"
)

// Outcome is a finished game seen from one player's side.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Result is one finished game recorded for a player.
type Result struct {
	ID         string          `db:"id" json:"id"`
	PlayerID   string          `db:"player_id" json:"player_id"`
	Mark       game.PlayerMark `db:"mark" json:"mark"`
	Mode       game.GameMode   `db:"mode" json:"mode"`
	Outcome    Outcome         `db:"outcome" json:"outcome"`
	Winner     game.PlayerMark `db:"winner" json:"winner,omitempty"`
	Difficulty string          `db:"difficulty" json:"difficulty,omitempty"`
	MoveCount  int             `db:"move_count" json:"move_count"`
	PlayedAt   time.Time       `db:"played_at" json:"played_at"`
}

// NewResult builds the result of a finished game for the player holding mark.
func NewResult(playerID string, mark game.PlayerMark, state *game.GameStateDTO) *Result {
	outcome := OutcomeDraw
	switch state.Winner {
	case mark:
		outcome = OutcomeWin
	case game.Opponent(mark):
		outcome = OutcomeLoss
	}

	r := &Result{
		PlayerID:  playerID,
		Mark:      mark,
		Mode:      state.Mode,
		Outcome:   outcome,
		Winner:    state.Winner,
		MoveCount: state.MoveCount,
	}
	if state.Mode == game.SinglePlayer {
		r.Difficulty = state.Difficulty
	}
	return r
}

// Scores are the win tallies per mark, as shown on the scoreboard.
type Scores struct {
	XWins int `json:"x_wins"`
	OWins int `json:"o_wins"`
	Draws int `json:"draws"`
}

// Total returns the number of games counted.
func (s Scores) Total() int {
	return s.XWins + s.OWins + s.Draws
}

// Statistics summarize a player's recorded games.
type Statistics struct {
	TotalGames   int                   `json:"total_games"`
	Wins         int                   `json:"wins"`
	Losses       int                   `json:"losses"`
	Draws        int                   `json:"draws"`
	WinRate      float64               `json:"win_rate"`
	AverageMoves float64               `json:"average_moves"`
	ByMode       map[game.GameMode]int `json:"by_mode"`
	ByDifficulty map[string]int        `json:"by_difficulty"`
}
