package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t), slog.Default())
	user := domain.User{
		ID:           "u-1",
		Email:        "Alice@Example.com",
		FullName:     "Alice",
		Bio:          "hello",
		PasswordHash: "hash",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	// When the user is created
	_, err := repository.CreateUser(ctx, user)
	req.NoError(err)

	// Then it is found by id and by email, case insensitively
	byID, err := repository.GetUser(ctx, "u-1")
	req.NoError(err)
	req.Equal(user, byID)
	byEmail, err := repository.GetUserByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(user, byEmail)
}

func Test_Duplicate_Email_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t), slog.Default())

	_, err := repository.CreateUser(ctx, domain.User{ID: "u-1", Email: "alice@example.com"})
	req.NoError(err)
	_, err = repository.CreateUser(ctx, domain.User{ID: "u-2", Email: "ALICE@example.com"})

	req.ErrorIs(err, errors.ErrUserAlreadyExists)
	_, err = repository.GetUser(ctx, "u-2")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Unknown_User_Is_Not_Found(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t), slog.Default())

	_, err := repository.GetUser(ctx, "ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
	_, err = repository.GetUserByEmail(ctx, "ghost@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_ListUsers_Is_Sorted_By_Name(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t), slog.Default())
	for _, u := range []domain.User{
		{ID: "3", Email: "c@example.com", FullName: "Carol"},
		{ID: "1", Email: "a@example.com", FullName: "Alice"},
		{ID: "2", Email: "b@example.com", FullName: "Bob"},
	} {
		_, err := repository.CreateUser(ctx, u)
		req.NoError(err)
	}

	users, err := repository.ListUsers(ctx)

	req.NoError(err)
	req.Len(users, 3)
	req.Equal("Alice", users[0].FullName)
	req.Equal("Bob", users[1].FullName)
	req.Equal("Carol", users[2].FullName)
}
