package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type relay struct {
	chat  *ChatService
	auth  *AuthService
	users map[string]string
}

// newRelay builds the full stack on a temporary badger store and registers alice, bob and carol.
func newRelay(t *testing.T) relay {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	users := storage.NewUserRepository(db, log)
	tokens := auth.NewTokenManager("secret", "chat-relay", time.Hour)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0),
		storage.NewMessageRepository(db, log), NewIdentityResolver(users, tokens), nil,
		runtime.Config{BufferSize: 64, SinkTimeout: time.Second, DeliveryTimeout: time.Second, MaxImageBytes: 1 << 20})

	r := relay{
		chat:  NewChatService(log, orchestrator),
		auth:  NewAuthService(log, users, tokens),
		users: make(map[string]string),
	}
	for _, name := range []string{"alice", "bob", "carol"} {
		session, err := r.auth.Register(context.Background(), RegisterCommand{
			Email:    name + "@example.com",
			FullName: name,
			Password: "ComplexPass123!",
		})
		req.NoError(err)
		r.users[name] = session.User.ID
	}
	return r
}

func TestChatService_Send_Receive_MarkSeen_Scenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := newRelay(t)
	alice, bob := r.users["alice"], r.users["bob"]

	// Given bob is online
	bobChannel := sink.NewConnectionSink(slog.Default(), 8)
	r.chat.Connect(bob, bobChannel)
	req.Equal([]string{bob}, r.chat.OnlineUsers())

	// When alice sends "hi"
	sent, err := r.chat.SendMessage(ctx, alice, bob, domain.Payload{Text: "hi"})
	req.NoError(err)

	// Then bob receives the same message, unseen
	received := (<-bobChannel.Events()).(event.MessageReceived)
	req.Equal(sent.ID, received.Message.ID)
	req.Equal("hi", received.Message.Text)
	req.False(received.Message.Seen)

	sidebar, err := r.chat.FetchSidebar(ctx, bob)
	req.NoError(err)
	req.Equal(map[string]int{alice: 1}, sidebar.Unseen)
	req.Len(sidebar.Entries, 2)

	// When bob opens the conversation and marks it seen
	conversation, err := r.chat.FetchConversation(ctx, bob, alice)
	req.NoError(err)
	req.Len(conversation, 1)
	req.NoError(r.chat.MarkSeen(ctx, bob, conversation[0].ID))

	// Then his sidebar shows nothing pending from alice
	sidebar, err = r.chat.FetchSidebar(ctx, bob)
	req.NoError(err)
	req.Empty(sidebar.Unseen)
	for _, entry := range sidebar.Entries {
		req.Zero(entry.Unseen)
	}
}

func TestChatService_Offline_Recipient_Pulls_Later(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := newRelay(t)
	alice, bob := r.users["alice"], r.users["bob"]

	_, err := r.chat.SendMessage(ctx, alice, bob, domain.Payload{Text: "are you there?"})
	req.NoError(err)

	conversation, err := r.chat.FetchConversation(ctx, bob, alice)
	req.NoError(err)
	req.Len(conversation, 1)
	req.False(conversation[0].Seen)
}

func TestChatService_MarkSeen_By_Sender_Is_Denied(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := newRelay(t)
	alice, bob := r.users["alice"], r.users["bob"]

	sent, err := r.chat.SendMessage(ctx, alice, bob, domain.Payload{Text: "hi"})
	req.NoError(err)

	err = r.chat.MarkSeen(ctx, alice, sent.ID)
	req.ErrorIs(err, errors.ErrPermissionDenied)

	// The flag is untouched and a second recipient mark is harmless
	conversation, err := r.chat.FetchConversation(ctx, alice, bob)
	req.NoError(err)
	req.False(conversation[0].Seen)
	req.NoError(r.chat.MarkSeen(ctx, bob, sent.ID))
	req.NoError(r.chat.MarkSeen(ctx, bob, sent.ID))
}

func TestChatService_Unknown_Recipient(t *testing.T) {
	r := newRelay(t)

	_, err := r.chat.SendMessage(context.Background(), r.users["alice"], "ghost", domain.Payload{Text: "hi"})

	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestChatService_Concurrent_Sends_Stay_Ordered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := newRelay(t)
	alice, bob := r.users["alice"], r.users["bob"]

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := r.chat.SendMessage(ctx, alice, bob, domain.Payload{Text: "ping"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := r.chat.SendMessage(ctx, bob, alice, domain.Payload{Text: "pong"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	conversation, err := r.chat.FetchConversation(ctx, alice, bob)
	req.NoError(err)
	req.Len(conversation, 40)
	for i := 1; i < len(conversation); i++ {
		req.False(conversation[i].CreatedAt.Before(conversation[i-1].CreatedAt))
	}
}

func TestChatService_Disconnect_Keeps_Successor(t *testing.T) {
	req := require.New(t)
	r := newRelay(t)
	alice := r.users["alice"]
	first := sink.NewConnectionSink(slog.Default(), 4)
	second := sink.NewConnectionSink(slog.Default(), 4)

	// Given alice reconnected from another place
	r.chat.Connect(alice, first)
	r.chat.Connect(alice, second)

	// When the old session notices and disconnects
	r.chat.Disconnect(alice, first)

	// Then she is still online through the new one
	req.Equal([]string{alice}, r.chat.OnlineUsers())

	r.chat.Disconnect(alice, second)
	req.Empty(r.chat.OnlineUsers())
	<-second.Done()
}
