package websocket

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/rpc"
	"chat-relay/services"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// handle runs one request on behalf of userID and builds its reply.
func handle(ctx context.Context, chat services.IChatService, userID string, request Frame) Frame {
	payload, err := dispatch(ctx, chat, userID, request)
	if err != nil {
		return errorFrame(request, err)
	}
	return resultFrame(request, payload)
}

func dispatch(ctx context.Context, chat services.IChatService, userID string, request Frame) (any, error) {
	switch request.Type {
	case SendMessage:
		var in rpc.SendMessageRequest
		if err := decode(request, &in); err != nil {
			return nil, err
		}
		message, err := chat.SendMessage(ctx, userID, in.RecipientID, domain.Payload{Text: in.Text, Image: in.Image})
		if err != nil {
			return nil, err
		}
		return rpc.SendMessageResponse{Message: rpc.ToMessage(message)}, nil

	case FetchConversation:
		var in rpc.FetchConversationRequest
		if err := decode(request, &in); err != nil {
			return nil, err
		}
		messages, err := chat.FetchConversation(ctx, userID, in.PeerID)
		if err != nil {
			return nil, err
		}
		page, next, err := rpc.PageMessages(rpc.ToMessages(messages), in.After, in.Limit, 0)
		if err != nil {
			return nil, err
		}
		return rpc.FetchConversationResponse{Messages: page, Next: next}, nil

	case MarkSeen:
		var in rpc.MarkSeenRequest
		if err := decode(request, &in); err != nil {
			return nil, err
		}
		messageID, err := uuid.Parse(in.MessageID)
		if err != nil {
			return nil, fmt.Errorf("%w: message id: %v", errors.ErrInvalidPayload, err)
		}
		if err := chat.MarkSeen(ctx, userID, messageID); err != nil {
			return nil, err
		}
		return rpc.MarkSeenResponse{Success: true}, nil

	case FetchSidebar:
		sidebar, err := chat.FetchSidebar(ctx, userID)
		if err != nil {
			return nil, err
		}
		return rpc.ToSidebar(sidebar.Entries, sidebar.Unseen), nil

	case OnlineUsers:
		return rpc.OnlineUsersResponse{Online: chat.OnlineUsers()}, nil

	case WhoAmI:
		user, err := chat.Profile(ctx, userID)
		if err != nil {
			return nil, err
		}
		return rpc.MeResponse{User: rpc.ToUser(user)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown request type %q", errors.ErrInvalidPayload, request.Type)
	}
}

func decode(request Frame, v any) error {
	if len(request.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", errors.ErrInvalidPayload)
	}
	if err := json.Unmarshal(request.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}
