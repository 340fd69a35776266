package service

import (
	"context"
	"errors"
	"fmt"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/game"
)

var (
	ErrInvalidBoard      = errors.New("invalid board")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)

// MoveCalculator picks a move for mark on board.
type MoveCalculator interface {
	CalculateNextMove(ctx context.Context, board game.Board, mark game.PlayerMark, difficulty bot.Difficulty) (game.Position, bool)
}

// EngineService exposes the stateless move selector and board analysis.
type EngineService interface {
	Move(ctx context.Context, req *models.MoveRequest) (*models.MoveResponse, error)
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

type engineService struct {
	calculator MoveCalculator
}

// NewEngineService creates an EngineService backed by calculator.
func NewEngineService(calculator MoveCalculator) EngineService {
	return &engineService{calculator: calculator}
}

// Move selects a move. A full board yields a nil position; a decided board is rejected.
func (s *engineService) Move(ctx context.Context, req *models.MoveRequest) (*models.MoveResponse, error) {
	board, err := game.BoardFromSlice(req.Board)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoard, err)
	}
	if _, won := game.Winner(board); won {
		return nil, game.ErrGameOver
	}

	difficulty := bot.Low
	if req.Difficulty != "" {
		if difficulty, err = bot.ParseDifficulty(req.Difficulty); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDifficulty, err)
		}
	}

	ctx, span := tracer.Start(ctx, "engineService.Move")
	defer span.End()

	pos, ok := s.calculator.CalculateNextMove(ctx, board, req.Mark, difficulty)
	if !ok {
		return &models.MoveResponse{}, nil
	}
	return &models.MoveResponse{Position: &pos}, nil
}

// Analyze summarizes board from the side of req.Mark.
func (s *engineService) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	board, err := game.BoardFromSlice(req.Board)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoard, err)
	}

	_, span := tracer.Start(ctx, "engineService.Analyze")
	defer span.End()

	resp := &models.AnalyzeResponse{
		IsDraw:          game.IsDraw(board),
		LegalMoves:      game.LegalMoves(board),
		PositionalScore: bot.PositionalScore(board, req.Mark),
	}
	if winner, ok := game.Winner(board); ok {
		resp.Winner = winner
		line, _ := game.WinningLine(board)
		resp.WinningLine = line[:]
	}
	resp.IsOver = resp.Winner != game.None || resp.IsDraw
	if resp.LegalMoves == nil {
		resp.LegalMoves = []game.Position{}
	}
	if resp.IsOver {
		return resp, nil
	}

	if pos, ok := bot.WinningMove(board, req.Mark); ok {
		resp.WinningMove = &pos
	}
	if pos, ok := bot.BlockingMove(board, req.Mark); ok {
		resp.BlockingMove = &pos
	}
	if pos, ok := bot.BestMove(board, req.Mark, bot.High.Depth()); ok {
		resp.BestMove = &pos
	}
	return resp, nil
}
