package score

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/db"
	"ctchen222/tictactoe/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestManager(t *testing.T, retention, recent int) *Manager {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Connect(ctx, filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.InitializeDB(ctx, conn))
	return NewManager(NewRepository(conn), retention, recent)
}

// clock returns a time source advancing one minute per call.
func clock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Minute)
	}
}

func result(playerID string, mark, winner game.PlayerMark, mode game.GameMode, difficulty string, moves int) *Result {
	state := &game.GameStateDTO{
		Winner:     winner,
		IsDraw:     winner == game.None,
		Mode:       mode,
		Difficulty: difficulty,
		MoveCount:  moves,
	}
	return NewResult(playerID, mark, state)
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name    string
		mark    game.PlayerMark
		winner  game.PlayerMark
		mode    game.GameMode
		want    Outcome
		wantDif string
	}{
		{"own mark wins", game.PlayerX, game.PlayerX, game.SinglePlayer, OutcomeWin, "hard"},
		{"opponent wins", game.PlayerO, game.PlayerX, game.SinglePlayer, OutcomeLoss, "hard"},
		{"draw", game.PlayerO, game.None, game.SinglePlayer, OutcomeDraw, "hard"},
		{"two player drops difficulty", game.PlayerX, game.PlayerO, game.TwoPlayer, OutcomeLoss, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := result("p1", tt.mark, tt.winner, tt.mode, "hard", 7)
			if r.Outcome != tt.want {
				t.Errorf("NewResult() outcome got = %v, want %v", r.Outcome, tt.want)
			}
			if r.Difficulty != tt.wantDif {
				t.Errorf("NewResult() difficulty got = %q, want %q", r.Difficulty, tt.wantDif)
			}
		})
	}
}

func TestManagerSaveAndRecent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 100, 3)
	m.now = clock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	for i := range 5 {
		require.NoError(t, m.Save(ctx, result("p1", game.PlayerX, game.PlayerX, game.TwoPlayer, "", 5+i)))
	}
	require.NoError(t, m.Save(ctx, result("p2", game.PlayerO, game.PlayerX, game.TwoPlayer, "", 9)))

	recent, err := m.Recent(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first.
	assert.Equal(t, []int{9, 8, 7}, []int{recent[0].MoveCount, recent[1].MoveCount, recent[2].MoveCount})
	for _, r := range recent {
		assert.Equal(t, "p1", r.PlayerID)
		assert.NotEmpty(t, r.ID)
	}
}

func TestManagerSavePrunesToRetention(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 100, 50)
	m.now = clock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := range 105 {
		require.NoError(t, m.Save(ctx, result("p1", game.PlayerX, game.None, game.TwoPlayer, "", i)))
	}

	all, err := m.repo.ListByPlayer(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, all, 100)
	assert.Equal(t, 104, all[0].MoveCount)
	assert.Equal(t, 5, all[len(all)-1].MoveCount, "the oldest five results are dropped")

	recent, err := m.Recent(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, recent, 50)
}

func TestManagerSaveRejectsInvalid(t *testing.T) {
	m := newTestManager(t, 0, 0)
	tests := []struct {
		name string
		r    *Result
	}{
		{"nil", nil},
		{"no player", &Result{Mark: game.PlayerX}},
		{"no mark", &Result{PlayerID: "p1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Save(context.Background(), tt.r)
			if !errors.Is(err, ErrInvalidResult) {
				t.Errorf("Save() error = %v, want %v", err, ErrInvalidResult)
			}
		})
	}
}

func TestManagerScoresAndStatistics(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 100, 50)

	games := []*Result{
		result("p1", game.PlayerX, game.PlayerX, game.SinglePlayer, "hard", 5),
		result("p1", game.PlayerO, game.PlayerO, game.SinglePlayer, "easy", 6),
		result("p1", game.PlayerO, game.PlayerX, game.TwoPlayer, "", 7),
		result("p1", game.PlayerX, game.None, game.SinglePlayer, "hard", 9),
	}
	for _, g := range games {
		require.NoError(t, m.Save(ctx, g))
	}

	scores, err := m.Scores(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Scores{XWins: 2, OWins: 1, Draws: 1}, scores)
	assert.Equal(t, 4, scores.Total())

	stats, err := m.Statistics(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalGames)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Draws)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 6.75, stats.AverageMoves, 1e-9)
	assert.Equal(t, map[game.GameMode]int{game.SinglePlayer: 3, game.TwoPlayer: 1}, stats.ByMode)
	assert.Equal(t, map[string]int{"hard": 2, "easy": 1}, stats.ByDifficulty)
}

func TestManagerStatisticsEmpty(t *testing.T) {
	m := newTestManager(t, 100, 50)
	stats, err := m.Statistics(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGames)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.AverageMoves)
}

func TestManagerClear(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, 100, 50)
	require.NoError(t, m.Save(ctx, result("p1", game.PlayerX, game.PlayerX, game.TwoPlayer, "", 5)))
	require.NoError(t, m.Save(ctx, result("p2", game.PlayerX, game.PlayerX, game.TwoPlayer, "", 5)))

	require.NoError(t, m.Clear(ctx, "p1"))

	scores, err := m.Scores(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, scores.Total())
	scores, err = m.Scores(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, scores.Total())
}

func TestManagerRepositoryErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	m := NewManager(repo, 10, 5)
	ctx := context.Background()
	boom := errors.New("disk full")

	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(boom)
	err := m.Save(ctx, result("p1", game.PlayerX, game.PlayerX, game.TwoPlayer, "", 5))
	assert.ErrorIs(t, err, boom)

	// A failed prune does not fail the save.
	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().Prune(gomock.Any(), "p1", 10).Return(boom)
	assert.NoError(t, m.Save(ctx, result("p1", game.PlayerX, game.PlayerX, game.TwoPlayer, "", 5)))

	repo.EXPECT().ListByPlayer(gomock.Any(), "p1", 5).Return(nil, boom)
	_, err = m.Recent(ctx, "p1")
	assert.ErrorIs(t, err, boom)

	repo.EXPECT().ListByPlayer(gomock.Any(), "p1", 0).Return(nil, boom).Times(2)
	_, err = m.Scores(ctx, "p1")
	assert.ErrorIs(t, err, boom)
	_, err = m.Statistics(ctx, "p1")
	assert.ErrorIs(t, err, boom)

	repo.EXPECT().DeleteByPlayer(gomock.Any(), "p1").Return(int64(0), boom)
	assert.ErrorIs(t, m.Clear(ctx, "p1"), boom)
}
