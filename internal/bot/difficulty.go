package bot

import (
	"fmt"
	"strings"
)

// Difficulty selects how the bot chooses its moves.
type Difficulty int

const (
	Low Difficulty = iota
	Medium
	High
)

// searchDepth is the fixed search budget of each difficulty.
var searchDepth = [...]int{
	Low:    1,
	Medium: 3,
	High:   6,
}

// Depth returns the search depth budget of the difficulty.
func (d Difficulty) Depth() int {
	if d < Low || d > High {
		return searchDepth[High]
	}
	return searchDepth[d]
}

func (d Difficulty) String() string {
	switch d {
	case Low:
		return "easy"
	case Medium:
		return "medium"
	case High:
		return "hard"
	default:
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
}

// ParseDifficulty accepts easy/medium/hard as well as low/high.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "hard", "high":
		return High, nil
	}
	return Low, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
