package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// IChatService is what the transports see of the relay.
type IChatService interface {
	Connect(userID string, channel contract.DeliveryChannel)
	Disconnect(userID string, channel contract.DeliveryChannel)
	SendMessage(ctx context.Context, senderID, recipientID string, payload domain.Payload) (domain.Message, error)
	FetchConversation(ctx context.Context, callerID, peerID string) ([]domain.Message, error)
	MarkSeen(ctx context.Context, callerID string, messageID uuid.UUID) error
	FetchSidebar(ctx context.Context, callerID string) (Sidebar, error)
	OnlineUsers() []string
	Profile(ctx context.Context, userID string) (domain.User, error)
}

// Sidebar lists every other user with their unseen counts.
// Unseen only holds the peers with at least one pending message.
type Sidebar struct {
	Entries []domain.SidebarEntry
	Unseen  map[string]int
}

type ChatService struct {
	log          *slog.Logger
	orchestrator *runtime.Orchestrator
}

func NewChatService(log *slog.Logger, o *runtime.Orchestrator) *ChatService {
	return &ChatService{log: log, orchestrator: o}
}

// Connect puts userID online behind channel. An older session of the same user is closed.
func (s *ChatService) Connect(userID string, channel contract.DeliveryChannel) {
	s.orchestrator.Registry().Register(userID, channel)
	s.log.Info("User connected", "user_id", userID)
}

// Disconnect must run before the connection resources are released.
// It leaves the registry alone when channel has already been superseded.
func (s *ChatService) Disconnect(userID string, channel contract.DeliveryChannel) {
	if s.orchestrator.Registry().DeregisterChannel(userID, channel) {
		s.log.Info("User disconnected", "user_id", userID)
	} else {
		s.log.Debug("Superseded session closed", "user_id", userID)
	}
	channel.Close()
}

func (s *ChatService) SendMessage(ctx context.Context, senderID, recipientID string, payload domain.Payload) (domain.Message, error) {
	return s.orchestrator.Coordinator().Send(ctx, senderID, recipientID, payload)
}

func (s *ChatService) FetchConversation(ctx context.Context, callerID, peerID string) ([]domain.Message, error) {
	return s.orchestrator.Coordinator().ListConversation(ctx, callerID, peerID)
}

func (s *ChatService) MarkSeen(ctx context.Context, callerID string, messageID uuid.UUID) error {
	return s.orchestrator.Coordinator().MarkSeen(ctx, messageID, callerID)
}

func (s *ChatService) FetchSidebar(ctx context.Context, callerID string) (Sidebar, error) {
	entries, err := s.orchestrator.Coordinator().ListSidebar(ctx, callerID)
	if err != nil {
		return Sidebar{}, err
	}
	return Sidebar{Entries: entries, Unseen: runtime.UnseenBySender(entries)}, nil
}

func (s *ChatService) OnlineUsers() []string {
	return s.orchestrator.Registry().Snapshot()
}

// Profile returns the public account of userID.
func (s *ChatService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.orchestrator.Coordinator().Profile(ctx, userID)
}
