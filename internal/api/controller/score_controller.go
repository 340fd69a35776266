package controller

import (
	"log/slog"
	"net/http"

	"ctchen222/tictactoe/internal/api/middleware"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"

	"github.com/gin-gonic/gin"
)

// ScoreController serves the authenticated player's score history.
type ScoreController struct {
	scoreService service.ScoreService
}

func NewScoreController(scoreService service.ScoreService) *ScoreController {
	return &ScoreController{scoreService: scoreService}
}

// Scores returns the X wins, O wins and draws tally.
func (sc *ScoreController) Scores(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := middleware.PlayerID(c)

	scores, err := sc.scoreService.Scores(ctx, playerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load scores", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load scores")
		return
	}
	response.SuccessResponse(c, gin.H{
		"x_wins": scores.XWins,
		"o_wins": scores.OWins,
		"draws":  scores.Draws,
		"total":  scores.Total(),
	})
}

// Statistics returns the player's aggregated statistics.
func (sc *ScoreController) Statistics(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := middleware.PlayerID(c)

	stats, err := sc.scoreService.Statistics(ctx, playerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load statistics", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load statistics")
		return
	}
	response.SuccessResponse(c, stats)
}

// Recent lists the newest recorded games.
func (sc *ScoreController) Recent(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := middleware.PlayerID(c)

	results, err := sc.scoreService.Recent(ctx, playerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load recent games", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load recent games")
		return
	}
	response.SuccessResponseList(c, results)
}

// Clear deletes the player's score history.
func (sc *ScoreController) Clear(c *gin.Context) {
	ctx := c.Request.Context()
	playerID := middleware.PlayerID(c)

	if err := sc.scoreService.Clear(ctx, playerID); err != nil {
		slog.ErrorContext(ctx, "Failed to clear scores", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to clear scores")
		return
	}
	response.SuccessResponseContent(c, "scores cleared")
}
