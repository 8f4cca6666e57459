package server

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/rpc"
	"chat-relay/services"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc"
)

type ChatServer struct {
	rpc.UnimplementedChatServiceServer
	chatService          services.IChatService
	connectionBufferSize int
	pageBudget           int
	log                  *slog.Logger
}

// NewChatServer serves the chat service. maxMessageBytes is the gRPC message
// cap the server runs with, conversation pages are cut to fit under it.
// Zero leaves pages unbounded.
func NewChatServer(log *slog.Logger, chatService services.IChatService, connectionBufferSize, maxMessageBytes int) *ChatServer {
	return &ChatServer{
		chatService:          chatService,
		connectionBufferSize: connectionBufferSize,
		pageBudget:           max(maxMessageBytes-rpc.EnvelopeOverhead, 0),
		log:                  log,
	}
}

// Connect puts the caller online and streams presence and message events until
// the client leaves, the session is superseded or the server stops.
// Deregistration happens before the stream returns.
func (s *ChatServer) Connect(_ *rpc.ConnectRequest, stream grpc.ServerStreamingServer[rpc.ChatEvent]) error {
	userID, err := callerID(stream.Context())
	if err != nil {
		return err
	}

	channel := sink.NewConnectionSink(s.log, s.connectionBufferSize)
	s.chatService.Connect(userID, channel)
	defer s.chatService.Disconnect(userID, channel)

	for {
		select {
		case <-stream.Context().Done():
			s.log.Info("Client left the stream", "user_id", userID)
			return nil
		case <-channel.Done():
			s.log.Info("Stream closed by the server", "user_id", userID)
			return nil
		case evt := <-channel.Events():
			chatEvent, ok := toChatEvent(evt)
			if !ok {
				continue
			}
			if err := stream.Send(&chatEvent); err != nil {
				s.log.Error("Failed to push event to stream", "user_id", userID, "error", err)
				return err
			}
		}
	}
}

func toChatEvent(evt event.DomainEvent) (rpc.ChatEvent, bool) {
	switch e := evt.(type) {
	case event.PresenceChanged:
		return rpc.ChatEvent{
			Type:     rpc.EventPresenceChanged,
			Presence: &rpc.Presence{Online: e.Online, At: e.At},
		}, true
	case event.MessageReceived:
		message := rpc.ToMessage(e.Message)
		return rpc.ChatEvent{Type: rpc.EventMessageReceived, Message: &message}, true
	default:
		return rpc.ChatEvent{}, false
	}
}

func (s *ChatServer) SendMessage(ctx context.Context, req *rpc.SendMessageRequest) (*rpc.SendMessageResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	message, err := s.chatService.SendMessage(ctx, userID, req.RecipientID, domain.Payload{Text: req.Text, Image: req.Image})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &rpc.SendMessageResponse{Message: rpc.ToMessage(message)}, nil
}

func (s *ChatServer) FetchConversation(ctx context.Context, req *rpc.FetchConversationRequest) (*rpc.FetchConversationResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.chatService.FetchConversation(ctx, userID, req.PeerID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	page, next, err := rpc.PageMessages(rpc.ToMessages(messages), req.After, req.Limit, s.pageBudget)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &rpc.FetchConversationResponse{Messages: page, Next: next}, nil
}

func (s *ChatServer) MarkSeen(ctx context.Context, req *rpc.MarkSeenRequest) (*rpc.MarkSeenResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: message id: %v", errors.ErrInvalidPayload, err))
	}
	if err := s.chatService.MarkSeen(ctx, userID, messageID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &rpc.MarkSeenResponse{Success: true}, nil
}

func (s *ChatServer) FetchSidebar(ctx context.Context, _ *rpc.FetchSidebarRequest) (*rpc.FetchSidebarResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	sidebar, err := s.chatService.FetchSidebar(ctx, userID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	response := rpc.ToSidebar(sidebar.Entries, sidebar.Unseen)
	return &response, nil
}

func (s *ChatServer) OnlineUsers(ctx context.Context, _ *rpc.OnlineUsersRequest) (*rpc.OnlineUsersResponse, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	return &rpc.OnlineUsersResponse{Online: s.chatService.OnlineUsers()}, nil
}
