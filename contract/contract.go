//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// It is used for logging during supervision, avoiding a Name method on Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes domain events. Consume must not block past ctx.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// DeliveryChannel is the live conduit to one connected client.
// Consume fails fast when the outbound buffer is full or the channel is closed.
// Done is closed once Close has been called.
type DeliveryChannel interface {
	EventSink
	Close()
	Done() <-chan struct{}
}

// IRegistry tracks who is online and how to reach them.
type IRegistry interface {
	Register(userID string, channel DeliveryChannel)
	Deregister(userID string)
	DeregisterChannel(userID string, channel DeliveryChannel) bool
	Lookup(userID string) (DeliveryChannel, bool)
	Snapshot() []string
	Channels() []DeliveryChannel
}

// IMessageRepository is the durable message store.
type IMessageRepository interface {
	Create(ctx context.Context, senderID, recipientID string, payload domain.Payload) (domain.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error)
	ListConversation(ctx context.Context, userA, userB string) ([]domain.Message, error)
	MarkSeen(ctx context.Context, id uuid.UUID) error
	CountUnseen(ctx context.Context, recipientID, senderID string) (int, error)
}

// IUserRepository persists accounts.
type IUserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// IIdentityResolver turns a bearer credential into a user identifier.
type IIdentityResolver interface {
	ResolveIdentity(ctx context.Context, credential string) (string, error)
}

// IUserDirectory is the lightweight user listing used by the sidebar and the send path.
type IUserDirectory interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	ListDirectory(ctx context.Context, excludingUserID string) ([]domain.DirectoryEntry, error)
}
