package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type IAuthService interface {
	Register(ctx context.Context, cmd RegisterCommand) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Me(ctx context.Context, userID string) (domain.User, error)
}

type RegisterCommand struct {
	Email      string
	FullName   string
	Password   string
	Bio        string
	ProfilePic string
}

// Session is what a successful login or registration hands back to the client.
type Session struct {
	Token string
	User  domain.User
}

type AuthService struct {
	log    *slog.Logger
	users  contract.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(log *slog.Logger, users contract.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (Session, error) {
	// Business rules are checked before the expensive hashing
	err := auth.ValidateRegister(auth.RegisterRequest{
		Email:      cmd.Email,
		FullName:   cmd.FullName,
		Password:   cmd.Password,
		Bio:        cmd.Bio,
		ProfilePic: cmd.ProfilePic,
	})
	if err != nil {
		return Session{}, err
	}

	hashedPassword, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.CreateUser(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(cmd.Email)),
		FullName:     strings.TrimSpace(cmd.FullName),
		ProfilePic:   cmd.ProfilePic,
		Bio:          cmd.Bio,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Session{}, err
	}

	s.log.Info("User registered", "user_id", user.ID)
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Email: email, Password: password}); err != nil {
		return Session{}, errors.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Same answer as a wrong password, no user enumeration
			return Session{}, errors.ErrInvalidCredentials
		}
		return Session{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}
	return s.session(user)
}

// Me returns the account of an already authenticated user, without its hash.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) session(user domain.User) (Session, error) {
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return Session{}, err
	}
	user.PasswordHash = ""
	return Session{Token: token, User: user}, nil
}
