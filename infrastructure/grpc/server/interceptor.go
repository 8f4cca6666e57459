package server

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/rpc"
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Methods reachable without a bearer token.
var publicMethods = map[string]struct{}{
	rpc.AuthService_Login_FullMethodName:    {},
	rpc.AuthService_Register_FullMethodName: {},
}

func isPublicMethod(method string) bool {
	_, ok := publicMethods[method]
	return ok
}

// authenticate resolves the authorization metadata into a context carrying the user id.
func authenticate(ctx context.Context, resolver contract.IIdentityResolver) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	userID, err := resolver.ResolveIdentity(ctx, values[0])
	if err != nil {
		if errors.Is(err, errors.ErrAuthenticationFailed) {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return nil, errors.MapToGRPCError(err)
	}
	return auth.WithUserID(ctx, userID), nil
}

// AuthInterceptor rejects unary calls without a valid bearer token, public methods aside.
func AuthInterceptor(log *slog.Logger, resolver contract.IIdentityResolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}
		authCtx, err := authenticate(ctx, resolver)
		if err != nil {
			log.Debug("Rejected unauthenticated call", "method", info.FullMethod, "error", err)
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamAuthInterceptor does the same for streams. A rejected Connect never
// reaches the registry.
func StreamAuthInterceptor(log *slog.Logger, resolver contract.IIdentityResolver) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isPublicMethod(info.FullMethod) {
			return handler(srv, ss)
		}
		authCtx, err := authenticate(ss.Context(), resolver)
		if err != nil {
			log.Debug("Rejected unauthenticated stream", "method", info.FullMethod, "error", err)
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: authCtx})
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

func callerID(ctx context.Context) (string, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no authenticated user")
	}
	return userID, nil
}
