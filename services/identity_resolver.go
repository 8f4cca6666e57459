package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// IdentityResolver turns bearer tokens into user ids and serves the user directory.
type IdentityResolver struct {
	users  contract.IUserRepository
	tokens *auth.TokenManager
}

func NewIdentityResolver(users contract.IUserRepository, tokens *auth.TokenManager) *IdentityResolver {
	return &IdentityResolver{users: users, tokens: tokens}
}

// ResolveIdentity accepts a raw token or a "Bearer <token>" header value.
// A valid token whose user has been removed is rejected.
func (r *IdentityResolver) ResolveIdentity(ctx context.Context, credential string) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if token == "" {
		return "", fmt.Errorf("%w: missing credential", errors.ErrAuthenticationFailed)
	}

	userID, err := r.tokens.ValidateToken(token)
	if err != nil {
		return "", err
	}
	if _, err := r.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return "", fmt.Errorf("%w: unknown user", errors.ErrAuthenticationFailed)
		}
		return "", err
	}
	return userID, nil
}

func (r *IdentityResolver) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := r.users.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ListDirectory returns every user but excludingUserID, in the repository order.
func (r *IdentityResolver) ListDirectory(ctx context.Context, excludingUserID string) ([]domain.DirectoryEntry, error) {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(users, func(user domain.User, _ int) (domain.DirectoryEntry, bool) {
		return user.Entry(), user.ID != excludingUserID
	}), nil
}
