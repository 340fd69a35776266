package game

import "fmt"

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	BorderMin = 0
	BorderMax = 2

	Size = BorderMax + 1
)

// Opponent returns the other player's mark. None has no opponent.
func Opponent(mark PlayerMark) PlayerMark {
	switch mark {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// Valid reports whether the mark is one of None, PlayerX or PlayerO.
func (m PlayerMark) Valid() bool {
	return m == None || m == PlayerX || m == PlayerO
}

// Position is a cell coordinate on the board.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Center is the middle cell of the board.
var Center = Position{Row: 1, Col: 1}

// NewPosition returns ErrInvalidPosition when row or col is outside the board.
func NewPosition(row, col int) (Position, error) {
	p := Position{Row: row, Col: col}
	if !p.Valid() {
		return Position{}, fmt.Errorf("%w: (%d, %d)", ErrInvalidPosition, row, col)
	}
	return p, nil
}

func (p Position) Valid() bool {
	return p.Row >= BorderMin && p.Row <= BorderMax && p.Col >= BorderMin && p.Col <= BorderMax
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// Board is a 3x3 grid stored row-major. It is a value type: assigning or
// passing a Board copies every cell.
type Board [Size][Size]PlayerMark

// Line is one of the triples of positions that wins the game.
type Line [3]Position

// Lines holds the 8 winning lines: rows, columns, then diagonals.
var Lines = [8]Line{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Cell returns the mark at p. p must be valid.
func (b Board) Cell(p Position) PlayerMark {
	return b[p.Row][p.Col]
}

// IsEmpty reports whether no mark has been placed yet.
func (b Board) IsEmpty() bool {
	for r := range Size {
		for c := range Size {
			if b[r][c] != None {
				return false
			}
		}
	}
	return true
}

// Winner returns the mark that fills any line.
func Winner(b Board) (PlayerMark, bool) {
	line, ok := WinningLine(b)
	if !ok {
		return None, false
	}
	return b.Cell(line[0]), true
}

// WinningLine returns the first line fully occupied by a single mark.
func WinningLine(b Board) (Line, bool) {
	for _, line := range Lines {
		first := b.Cell(line[0])
		if first != None && first == b.Cell(line[1]) && first == b.Cell(line[2]) {
			return line, true
		}
	}
	return Line{}, false
}

// IsFull reports whether every cell holds a mark.
func IsFull(b Board) bool {
	for r := range Size {
		for c := range Size {
			if b[r][c] == None {
				return false
			}
		}
	}
	return true
}

// IsDraw reports a full board with no winner.
func IsDraw(b Board) bool {
	if _, ok := Winner(b); ok {
		return false
	}
	return IsFull(b)
}

// LegalMoves lists the empty cells in row-major order.
func LegalMoves(b Board) []Position {
	moves := make([]Position, 0, Size*Size)
	for r := range Size {
		for c := range Size {
			if b[r][c] == None {
				moves = append(moves, Position{Row: r, Col: c})
			}
		}
	}
	return moves
}

// Apply returns a copy of b with mark placed at p.
func Apply(b Board, p Position, mark PlayerMark) (Board, error) {
	if !p.Valid() {
		return b, fmt.Errorf("%w: %s", ErrInvalidPosition, p)
	}
	if b.Cell(p) != None {
		return b, fmt.Errorf("%w: %s", ErrIllegalMove, p)
	}
	b[p.Row][p.Col] = mark
	return b, nil
}
