package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/tictactoe/internal/api/controller"
	apirepository "ctchen222/tictactoe/internal/api/repository"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/db"
	"ctchen222/tictactoe/internal/hub"
	"ctchen222/tictactoe/internal/logger"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/score"
	"ctchen222/tictactoe/internal/server"
	"ctchen222/tictactoe/internal/telemetry"

	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()
	if _, err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	serverID := cfg.ServerID
	if serverID == "" {
		if host, err := os.Hostname(); err == nil {
			serverID = host
		} else {
			serverID = uuid.New().String()
		}
	}

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Initialize SQLite DB
	DB, err := db.Connect(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to get sqlite db connection: %v", err)
	}
	defer DB.Close()
	if err := db.InitializeDB(ctx, DB); err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	// Create repositories
	gameRepo := repository.NewGameRepository(rdb)
	playerRepo := repository.NewPlayerRepository(rdb)
	matchmakingRepo := repository.NewMatchmakingRepository(rdb)
	userRepo := apirepository.NewUserRepository(DB)
	scoreManager := score.NewManager(score.NewRepository(DB), cfg.Scores.Retention, cfg.Scores.RecentLimit)
	calculator := bot.NewMoveCalculator(bot.NewEngine(nil))

	// Create services
	auth := service.NewAuthenticator(cfg.JWTSecret, service.DefaultTokenTTL)
	userService := service.NewUserService(userRepo, auth)
	engineService := service.NewEngineService(calculator)

	// Create hub
	h := hub.NewHub(rdb, gameRepo, playerRepo, matchmakingRepo, calculator, scoreManager, hub.Options{
		ServerID:         serverID,
		MoveTimeout:      cfg.Game.MoveTimeout,
		ReconnectionWait: cfg.Game.ReconnectionWait,
		BotThinkTime:     cfg.Game.BotThinkTime,
	})
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		h.Run(ctx)
	}()

	// Create the Gin-based server
	srv := server.NewServer(h, auth, server.Controllers{
		Users:  controller.NewUserController(userService),
		Engine: controller.NewEngineController(engineService),
		Scores: controller.NewScoreController(scoreManager),
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		slog.InfoContext(ctx, "http server started", "http.addr", cfg.HTTPAddr, "server.id", serverID)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	select {
	case <-hubDone:
	case <-shutdownCtx.Done():
	}

	slog.Info("Server exiting")
}
