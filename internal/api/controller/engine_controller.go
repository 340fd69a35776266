package controller

import (
	"errors"
	"net/http"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/game"

	"github.com/gin-gonic/gin"
)

// EngineController serves the stateless engine endpoints.
type EngineController struct {
	engineService service.EngineService
}

func NewEngineController(engineService service.EngineService) *EngineController {
	return &EngineController{engineService: engineService}
}

// Move returns the engine's move for the posted board.
func (ec *EngineController) Move(c *gin.Context) {
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := ec.engineService.Move(c.Request.Context(), &req)
	if err != nil {
		engineError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

// Analyze returns a tactical summary of the posted board.
func (ec *EngineController) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := ec.engineService.Analyze(c.Request.Context(), &req)
	if err != nil {
		engineError(c, err)
		return
	}
	response.SuccessResponse(c, resp)
}

func engineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidBoard), errors.Is(err, service.ErrInvalidDifficulty):
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrGameOver):
		response.ErrorResponse(c, http.StatusConflict, err.Error())
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
