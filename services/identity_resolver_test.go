package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestIdentityResolver_ResolveIdentity(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewTokenManager("secret", "chat-relay", time.Hour)
	token, err := tokens.GenerateToken("alice")
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		setup      func(repo *mocks.MockIUserRepository)
		wantUser   string
		wantErr    error
	}{
		{
			name:       "bearer header",
			credential: "Bearer " + token,
			setup: func(repo *mocks.MockIUserRepository) {
				repo.EXPECT().GetUser(ctx, "alice").Return(domain.User{ID: "alice"}, nil)
			},
			wantUser: "alice",
		},
		{
			name:       "raw token",
			credential: token,
			setup: func(repo *mocks.MockIUserRepository) {
				repo.EXPECT().GetUser(ctx, "alice").Return(domain.User{ID: "alice"}, nil)
			},
			wantUser: "alice",
		},
		{
			name:       "missing credential",
			credential: "Bearer ",
			wantErr:    errors.ErrAuthenticationFailed,
		},
		{
			name:       "garbage",
			credential: "Bearer nope",
			wantErr:    errors.ErrAuthenticationFailed,
		},
		{
			name:       "deleted user",
			credential: token,
			setup: func(repo *mocks.MockIUserRepository) {
				repo.EXPECT().GetUser(ctx, "alice").Return(domain.User{}, errors.ErrUserNotFound)
			},
			wantErr: errors.ErrAuthenticationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			repo := mocks.NewMockIUserRepository(gomock.NewController(t))
			if tt.setup != nil {
				tt.setup(repo)
			}
			resolver := NewIdentityResolver(repo, tokens)

			userID, err := resolver.ResolveIdentity(ctx, tt.credential)

			if tt.wantErr != nil {
				req.ErrorIs(err, tt.wantErr)
				return
			}
			req.NoError(err)
			req.Equal(tt.wantUser, userID)
		})
	}
}

func TestIdentityResolver_ListDirectory_Excludes_Caller(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := mocks.NewMockIUserRepository(gomock.NewController(t))
	resolver := NewIdentityResolver(repo, auth.NewTokenManager("secret", "chat-relay", time.Hour))

	repo.EXPECT().ListUsers(ctx).Return([]domain.User{
		{ID: "alice", FullName: "Alice", PasswordHash: "x"},
		{ID: "bob", FullName: "Bob", ProfilePic: "https://example.com/bob.png"},
		{ID: "carol", FullName: "Carol"},
	}, nil)

	entries, err := resolver.ListDirectory(ctx, "alice")

	req.NoError(err)
	req.Equal([]domain.DirectoryEntry{
		{ID: "bob", FullName: "Bob", ProfilePic: "https://example.com/bob.png"},
		{ID: "carol", FullName: "Carol"},
	}, entries)
}
