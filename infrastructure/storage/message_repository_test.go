package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_List_Conversation_In_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	// Given three messages exchanged between alice and bob
	first, err := repository.Create(ctx, "alice", "bob", domain.Payload{Text: "hi"})
	req.NoError(err)
	second, err := repository.Create(ctx, "bob", "alice", domain.Payload{Text: "hello"})
	req.NoError(err)
	third, err := repository.Create(ctx, "alice", "bob", domain.Payload{Image: "https://example.com/cat.png"})
	req.NoError(err)
	_, err = repository.Create(ctx, "alice", "carol", domain.Payload{Text: "unrelated"})
	req.NoError(err)

	// When listing from either side
	fromAlice, err := repository.ListConversation(ctx, "alice", "bob")
	req.NoError(err)
	fromBob, err := repository.ListConversation(ctx, "bob", "alice")
	req.NoError(err)

	// Then both see the same messages, oldest first
	req.Equal([]uuid.UUID{first.ID, second.ID, third.ID}, ids(fromAlice))
	req.Equal(fromAlice, fromBob)
	req.Equal("https://example.com/cat.png", fromAlice[2].Image)
	req.False(fromAlice[0].Seen)
}

func Test_Create_Assigns_Strictly_Increasing_Timestamps(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repository.now = func() time.Time { return frozen }

	// Given a clock that does not move
	first, err := repository.Create(ctx, "alice", "bob", domain.Payload{Text: "one"})
	req.NoError(err)
	second, err := repository.Create(ctx, "alice", "bob", domain.Payload{Text: "two"})
	req.NoError(err)

	// Then creation times still differ and keep insertion order
	req.True(second.CreatedAt.After(first.CreatedAt))
	listed, err := repository.ListConversation(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal([]uuid.UUID{first.ID, second.ID}, ids(listed))
}

func Test_Reopened_Repository_Keeps_Timestamps_Increasing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	// Given a message stored while the clock ran ahead
	before := NewMessageRepository(db, slog.Default())
	before.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	first, err := before.Create(ctx, "alice", "bob", domain.Payload{Text: "from the future"})
	req.NoError(err)

	// When the relay restarts with the clock set back
	after := NewMessageRepository(db, slog.Default())
	after.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	second, err := after.Create(ctx, "bob", "alice", domain.Payload{Text: "reply"})
	req.NoError(err)

	// Then the new message still sorts after the stored one
	req.True(second.CreatedAt.After(first.CreatedAt))
	listed, err := after.ListConversation(ctx, "alice", "bob")
	req.NoError(err)
	req.Equal([]uuid.UUID{first.ID, second.ID}, ids(listed))
}

func Test_Empty_Conversation_Is_Not_An_Error(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	messages, err := repository.ListConversation(context.Background(), "alice", "bob")

	req.NoError(err)
	req.Empty(messages)
}

func Test_MarkSeen_Updates_Flag_And_Unseen_Count(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	// Given two unseen messages from alice to bob
	first, err := repository.Create(ctx, "alice", "bob", domain.Payload{Text: "one"})
	req.NoError(err)
	_, err = repository.Create(ctx, "alice", "bob", domain.Payload{Text: "two"})
	req.NoError(err)
	count, err := repository.CountUnseen(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(2, count)

	// When bob marks the first one twice
	req.NoError(repository.MarkSeen(ctx, first.ID))
	req.NoError(repository.MarkSeen(ctx, first.ID))

	// Then only one stays unseen and the flag is persisted
	count, err = repository.CountUnseen(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(1, count)
	stored, err := repository.GetMessage(ctx, first.ID)
	req.NoError(err)
	req.True(stored.Seen)

	// And nothing is pending in the other direction
	count, err = repository.CountUnseen(ctx, "alice", "bob")
	req.NoError(err)
	req.Zero(count)
}

func Test_Unknown_Message_Is_Not_Found(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	_, err := repository.GetMessage(ctx, uuid.New())
	req.ErrorIs(err, errors.ErrMessageNotFound)
	req.ErrorIs(err, errors.ErrNotFound)

	err = repository.MarkSeen(ctx, uuid.New())
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_Cancelled_Context_Is_A_Persistence_Failure(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repository.Create(ctx, "alice", "bob", domain.Payload{Text: "lost"})

	req.ErrorIs(err, errors.ErrPersistenceFailure)
}

func Test_Closed_Database_Is_A_Persistence_Failure(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())
	req.NoError(db.Close())

	_, err := repository.Create(context.Background(), "alice", "bob", domain.Payload{Text: "lost"})

	req.ErrorIs(err, errors.ErrPersistenceFailure)
}

func ids(messages []domain.Message) []uuid.UUID {
	result := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		result = append(result, m.ID)
	}
	return result
}
