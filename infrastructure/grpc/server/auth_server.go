package server

import (
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/rpc"
	"chat-relay/services"
	"context"
)

type AuthServer struct {
	rpc.UnimplementedAuthServiceServer
	authService services.IAuthService
}

func NewAuthServer(authService services.IAuthService) *AuthServer {
	return &AuthServer{authService: authService}
}

// Register validates the input, stores the account and issues a token.
func (s *AuthServer) Register(ctx context.Context, in *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	session, err := s.authService.Register(ctx, services.RegisterCommand{
		Email:      in.Email,
		FullName:   in.FullName,
		Password:   in.Password,
		Bio:        in.Bio,
		ProfilePic: in.ProfilePic,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &rpc.AuthResponse{Token: session.Token, User: rpc.ToUser(session.User)}, nil
}

// Login verifies credentials and returns a session token.
func (s *AuthServer) Login(ctx context.Context, in *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	session, err := s.authService.Login(ctx, in.Email, in.Password)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &rpc.AuthResponse{Token: session.Token, User: rpc.ToUser(session.User)}, nil
}

// Me answers whether the session token is still good and who it belongs to.
func (s *AuthServer) Me(ctx context.Context, _ *rpc.MeRequest) (*rpc.MeResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.authService.Me(ctx, userID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &rpc.MeResponse{User: rpc.ToUser(user)}, nil
}
