package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/sink"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type coordinatorFixture struct {
	messages  *mocks.MockIMessageRepository
	directory *mocks.MockIUserDirectory
	registry  *PresenceRegistry
	events    chan event.DomainEvent
	sut       *DeliveryCoordinator
}

func newCoordinatorFixture(t *testing.T) coordinatorFixture {
	ctrl := gomock.NewController(t)
	f := coordinatorFixture{
		messages:  mocks.NewMockIMessageRepository(ctrl),
		directory: mocks.NewMockIUserDirectory(ctrl),
		registry:  NewPresenceRegistry(slog.Default()),
		events:    make(chan event.DomainEvent, 10),
	}
	f.sut = NewDeliveryCoordinator(slog.Default(), f.messages, f.directory, f.registry, f.events, time.Second,
		domain.PayloadLimits{MaxTextBytes: 64, MaxImageBytes: 1024})
	return f
}

func stored(sender, recipient, text string) domain.Message {
	return domain.Message{
		ID:          uuid.New(),
		SenderID:    sender,
		RecipientID: recipient,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestCoordinator_Send_Delivers_To_Online_Recipient(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	bob := sink.NewConnectionSink(slog.Default(), 4)
	f.registry.Register("bob", bob)
	message := stored("alice", "bob", "hi")

	// Given bob exists and is online
	f.directory.EXPECT().GetUser(ctx, "bob").Return(domain.User{ID: "bob"}, nil)
	f.messages.EXPECT().Create(ctx, "alice", "bob", domain.Payload{Text: "hi"}).Return(message, nil)

	// When alice sends "hi"
	result, err := f.sut.Send(ctx, "alice", "bob", domain.Payload{Text: "  hi "})

	// Then the persisted message is returned and pushed to bob as is
	req.NoError(err)
	req.Equal(message, result)
	received := (<-bob.Events()).(event.MessageReceived)
	req.Equal(message, received.Message)
	req.False(received.Message.Seen)

	req.IsType(event.MessagePersisted{}, <-f.events)
	attempt := (<-f.events).(event.DeliveryAttempt)
	req.Equal(event.Delivered, attempt.Result)
}

func TestCoordinator_Send_To_Offline_Recipient_Still_Succeeds(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	message := stored("alice", "bob", "hi")

	f.directory.EXPECT().GetUser(ctx, "bob").Return(domain.User{ID: "bob"}, nil)
	f.messages.EXPECT().Create(ctx, "alice", "bob", gomock.Any()).Return(message, nil)

	result, err := f.sut.Send(ctx, "alice", "bob", domain.Payload{Text: "hi"})

	req.NoError(err)
	req.Equal(message.ID, result.ID)
	<-f.events
	attempt := (<-f.events).(event.DeliveryAttempt)
	req.Equal(event.Offline, attempt.Result)
}

func TestCoordinator_Send_Swallows_Delivery_Failure(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	bob := sink.NewConnectionSink(slog.Default(), 1)
	f.registry.Register("bob", bob)
	req.NoError(bob.Consume(ctx, event.PresenceChanged{}))

	f.directory.EXPECT().GetUser(ctx, "bob").Return(domain.User{ID: "bob"}, nil)
	f.messages.EXPECT().Create(ctx, "alice", "bob", gomock.Any()).Return(stored("alice", "bob", "hi"), nil)

	// When bob's buffer is full
	_, err := f.sut.Send(ctx, "alice", "bob", domain.Payload{Text: "hi"})

	// Then the sender does not learn about it
	req.NoError(err)
	<-f.events
	attempt := (<-f.events).(event.DeliveryAttempt)
	req.Equal(event.Dropped, attempt.Result)
}

func TestCoordinator_Send_Persistence_Failure_Delivers_Nothing(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	bob := sink.NewConnectionSink(slog.Default(), 4)
	f.registry.Register("bob", bob)

	f.directory.EXPECT().GetUser(ctx, "bob").Return(domain.User{ID: "bob"}, nil)
	f.messages.EXPECT().Create(ctx, "alice", "bob", gomock.Any()).Return(domain.Message{}, errors.ErrPersistenceFailure)

	_, err := f.sut.Send(ctx, "alice", "bob", domain.Payload{Text: "hi"})

	req.ErrorIs(err, errors.ErrPersistenceFailure)
	req.Zero(bob.Len())
	req.Empty(f.events)
}

func TestCoordinator_Send_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		payload   domain.Payload
		setup     func(f coordinatorFixture)
		wantErr   error
	}{
		{
			name:      "empty payload",
			recipient: "bob",
			payload:   domain.Payload{Text: "   "},
			wantErr:   errors.ErrInvalidPayload,
		},
		{
			name:      "text and image",
			recipient: "bob",
			payload:   domain.Payload{Text: "hi", Image: "https://example.com/a.png"},
			wantErr:   errors.ErrInvalidPayload,
		},
		{
			name:      "text over the configured cap",
			recipient: "bob",
			payload:   domain.Payload{Text: strings.Repeat("a", 65)},
			wantErr:   errors.ErrInvalidPayload,
		},
		{
			name:      "unknown recipient",
			recipient: "ghost",
			payload:   domain.Payload{Text: "hi"},
			setup: func(f coordinatorFixture) {
				f.directory.EXPECT().GetUser(gomock.Any(), "ghost").Return(domain.User{}, errors.ErrUserNotFound)
			},
			wantErr: errors.ErrNotFound,
		},
		{
			name:      "self message",
			recipient: "alice",
			payload:   domain.Payload{Text: "hi"},
			wantErr:   errors.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCoordinatorFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.sut.Send(context.Background(), "alice", tt.recipient, tt.payload)

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCoordinator_MarkSeen(t *testing.T) {
	ctx := context.Background()
	message := stored("alice", "bob", "hi")

	t.Run("recipient marks message", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.messages.EXPECT().GetMessage(ctx, message.ID).Return(message, nil)
		f.messages.EXPECT().MarkSeen(ctx, message.ID).Return(nil)

		require.NoError(t, f.sut.MarkSeen(ctx, message.ID, "bob"))
	})

	t.Run("already seen is a no-op", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		seen := message
		seen.Seen = true
		f.messages.EXPECT().GetMessage(ctx, message.ID).Return(seen, nil)
		f.messages.EXPECT().MarkSeen(gomock.Any(), gomock.Any()).Times(0)

		require.NoError(t, f.sut.MarkSeen(ctx, message.ID, "bob"))
	})

	t.Run("sender is not allowed", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.messages.EXPECT().GetMessage(ctx, message.ID).Return(message, nil)
		f.messages.EXPECT().MarkSeen(gomock.Any(), gomock.Any()).Times(0)

		err := f.sut.MarkSeen(ctx, message.ID, "alice")

		require.ErrorIs(t, err, errors.ErrPermissionDenied)
	})

	t.Run("unknown message", func(t *testing.T) {
		f := newCoordinatorFixture(t)
		f.messages.EXPECT().GetMessage(ctx, message.ID).Return(domain.Message{}, errors.ErrMessageNotFound)

		err := f.sut.MarkSeen(ctx, message.ID, "bob")

		require.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestCoordinator_ListSidebar_Reads_Fresh_Counts(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	f.directory.EXPECT().ListDirectory(ctx, "bob").Return([]domain.DirectoryEntry{
		{ID: "alice", FullName: "Alice"},
		{ID: "carol", FullName: "Carol"},
	}, nil)
	gomock.InOrder(
		f.messages.EXPECT().CountUnseen(ctx, "bob", "alice").Return(2, nil),
		f.messages.EXPECT().CountUnseen(ctx, "bob", "carol").Return(0, nil),
	)

	sidebar, err := f.sut.ListSidebar(ctx, "bob")

	req.NoError(err)
	req.Len(sidebar, 2)
	req.Equal("alice", sidebar[0].User.ID)
	req.Equal(2, sidebar[0].Unseen)
	req.Equal(0, sidebar[1].Unseen)
	req.Equal(map[string]int{"alice": 2}, UnseenBySender(sidebar))
}

func TestCoordinator_ListSidebar_Propagates_Store_Failure(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	f.directory.EXPECT().ListDirectory(ctx, "bob").Return([]domain.DirectoryEntry{{ID: "alice"}}, nil)
	f.messages.EXPECT().CountUnseen(ctx, "bob", "alice").Return(0, errors.ErrPersistenceFailure)

	_, err := f.sut.ListSidebar(ctx, "bob")

	require.ErrorIs(t, err, errors.ErrPersistenceFailure)
}
