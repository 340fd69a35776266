package service

import (
	"context"
	"errors"
	"log/slog"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/api/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

var tracer = otel.Tracer("api.service")

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (*models.LoginResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	auth     *Authenticator
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, auth *Authenticator) UserService {
	return &userService{userRepo: userRepo, auth: auth}
}

// Register handles user registration. Every user gets a stable player ID.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) error {
	ctx, span := tracer.Start(ctx, "userService.Register", trace.WithAttributes(
		attribute.String("user.name", req.Username),
	))
	defer span.End()

	existingUser, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to look up user")
		return err
	}
	if existingUser != nil {
		return ErrUsernameTaken
	}

	user := &models.User{
		PlayerID: uuid.New().String(),
		Username: req.Username,
	}
	if err := s.userRepo.CreateUser(ctx, user, req.Password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create user")
		return err
	}
	slog.InfoContext(ctx, "User registered", "user.name", user.Username, "player.id", user.PlayerID)
	return nil
}

// Login checks the credentials and returns a token for the user's player ID.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	ctx, span := tracer.Start(ctx, "userService.Login", trace.WithAttributes(
		attribute.String("user.name", req.Username),
	))
	defer span.End()

	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to look up user")
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.auth.Issue(user.PlayerID, user.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to issue token")
		return nil, err
	}
	return &models.LoginResponse{Token: token, PlayerID: user.PlayerID}, nil
}

// GuestLogin generates a UUID for a guest player and a token for it.
func (s *userService) GuestLogin(ctx context.Context) (*models.LoginResponse, error) {
	_, span := tracer.Start(ctx, "userService.GuestLogin")
	defer span.End()

	playerID := uuid.New().String()
	token, err := s.auth.Issue(playerID, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to issue token")
		return nil, err
	}
	return &models.LoginResponse{Token: token, PlayerID: playerID}, nil
}
