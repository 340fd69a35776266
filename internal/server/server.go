package server

import (
	"log/slog"
	"net/http"

	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/middleware"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Registrar accepts new websocket players. *hub.Hub implements it.
type Registrar interface {
	Register() chan<- *types.RegistrationRequest
}

// Controllers groups the REST handlers mounted under /api/v1.
type Controllers struct {
	Users  *controller.UserController
	Engine *controller.EngineController
	Scores *controller.ScoreController
}

type Server struct {
	hub      Registrar
	auth     middleware.TokenVerifier
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

func NewServer(h Registrar, auth middleware.TokenVerifier, controllers Controllers) *Server {
	s := &Server{
		hub:  h,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.engine = s.routes(controllers)
	return s
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) routes(ctl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		response.SuccessResponseContent(c, "ok")
	})
	r.GET("/ws", s.handleWebSocket)

	v1 := r.Group("/api/v1")
	if ctl.Users != nil {
		users := v1.Group("/users")
		users.POST("/register", ctl.Users.Register)
		users.POST("/login", ctl.Users.Login)
		users.POST("/guest", ctl.Users.GuestLogin)
	}
	if ctl.Engine != nil {
		engine := v1.Group("/engine")
		engine.POST("/move", ctl.Engine.Move)
		engine.POST("/analyze", ctl.Engine.Analyze)
	}
	if ctl.Scores != nil {
		scores := v1.Group("/scores", middleware.JWTAuth(s.auth))
		scores.GET("", ctl.Scores.Scores)
		scores.GET("/statistics", ctl.Scores.Statistics)
		scores.GET("/recent", ctl.Scores.Recent)
		scores.DELETE("", ctl.Scores.Clear)
	}
	return r
}

// wsQuery are the query parameters of /ws.
type wsQuery struct {
	Token      string `form:"token"`
	PlayerID   string `form:"playerId" validate:"omitempty,max=64"`
	Mode       string `form:"mode" validate:"omitempty,mode"`
	Difficulty string `form:"difficulty" validate:"omitempty,difficulty"`
}

// legacyModes maps the mode names of older clients.
var legacyModes = map[string]game.GameMode{
	"bot":   game.SinglePlayer,
	"human": game.TwoPlayer,
}

// handleWebSocket's only responsibility is to upgrade the connection and
// pass a registration request to the hub. It does not distinguish between
// new and reconnecting players.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("http.method", c.Request.Method),
	))
	defer span.End()

	var q wsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if m, ok := legacyModes[q.Mode]; ok {
		q.Mode = string(m)
	}
	if err := validator.GetValidator().Struct(q); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// A token wins over the playerId parameter; otherwise generate a new ID.
	playerID := q.PlayerID
	if q.Token != "" {
		if s.auth == nil {
			response.ErrorResponse(c, http.StatusUnauthorized, "tokens are not accepted")
			return
		}
		claims, err := s.auth.Verify(q.Token)
		if err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			return
		}
		playerID = claims.Subject
	}
	if playerID == "" {
		playerID = uuid.New().String()
	}

	mode := game.GameMode(q.Mode)
	if mode == "" {
		mode = game.TwoPlayer
	}
	difficulty := q.Difficulty
	if mode == game.SinglePlayer && difficulty == "" {
		difficulty = "easy"
	}
	span.SetAttributes(
		attribute.String("player.id", playerID),
		attribute.String("game.mode", string(mode)),
		attribute.String("game.difficulty", difficulty),
	)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	p := player.NewPlayer(playerID, player.NewLockedConn(conn))

	// Send the registration request to the hub for processing.
	req := &types.RegistrationRequest{
		Player:     p,
		PlayerID:   p.ID,
		Mode:       mode,
		Difficulty: difficulty,
		Ctx:        ctx, // Pass the context with the span
	}
	select {
	case s.hub.Register() <- req:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Registration abandoned", "player.id", playerID, "error", ctx.Err())
		conn.Close()
	}
}
