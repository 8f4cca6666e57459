package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DeliveryCoordinator owns the send path: persist first, then try a live push.
// Persistence errors reach the caller, delivery errors never do.
type DeliveryCoordinator struct {
	log             *slog.Logger
	messages        contract.IMessageRepository
	directory       contract.IUserDirectory
	registry        contract.IRegistry
	events          chan<- event.DomainEvent
	deliveryTimeout time.Duration
	limits          domain.PayloadLimits
}

func NewDeliveryCoordinator(log *slog.Logger, messages contract.IMessageRepository,
	directory contract.IUserDirectory, registry contract.IRegistry,
	events chan<- event.DomainEvent, deliveryTimeout time.Duration, limits domain.PayloadLimits) *DeliveryCoordinator {
	return &DeliveryCoordinator{
		log:             log,
		messages:        messages,
		directory:       directory,
		registry:        registry,
		events:          events,
		deliveryTimeout: deliveryTimeout,
		limits:          limits,
	}
}

// Send persists a message from senderID to recipientID and pushes it to the
// recipient when online. The returned message carries the server-assigned id and timestamp.
func (c *DeliveryCoordinator) Send(ctx context.Context, senderID, recipientID string, payload domain.Payload) (domain.Message, error) {
	payload = payload.Normalize()
	if err := domain.ValidatePayload(payload, c.limits); err != nil {
		return domain.Message{}, err
	}
	if senderID == recipientID {
		return domain.Message{}, fmt.Errorf("%w: cannot message yourself", errors.ErrUserNotFound)
	}
	if _, err := c.directory.GetUser(ctx, recipientID); err != nil {
		return domain.Message{}, err
	}

	// 1. Durability first: nothing is delivered if the store refuses the message
	message, err := c.messages.Create(ctx, senderID, recipientID, payload)
	if err != nil {
		return domain.Message{}, err
	}
	emit(c.log, c.events, event.MessagePersisted{Message: message})

	// 2. Best effort live delivery
	result := c.deliver(ctx, message)
	emit(c.log, c.events, event.DeliveryAttempt{
		MessageID:   message.ID,
		RecipientID: recipientID,
		Result:      result,
		At:          time.Now().UTC(),
	})
	return message, nil
}

func (c *DeliveryCoordinator) deliver(ctx context.Context, message domain.Message) event.DeliveryResult {
	channel, ok := c.registry.Lookup(message.RecipientID)
	if !ok {
		return event.Offline
	}

	pushCtx := context.WithoutCancel(ctx)
	if c.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		pushCtx, cancel = context.WithTimeout(pushCtx, c.deliveryTimeout)
		defer cancel()
	}
	if err := channel.Consume(pushCtx, event.MessageReceived{Message: message}); err != nil {
		c.log.Debug("Live delivery failed, message stays unseen",
			"message_id", message.ID, "recipient_id", message.RecipientID, "error", err)
		return event.Dropped
	}
	return event.Delivered
}

// MarkSeen flips the seen flag of a message addressed to callerID.
// Marking an already seen message succeeds without effect.
func (c *DeliveryCoordinator) MarkSeen(ctx context.Context, messageID uuid.UUID, callerID string) error {
	message, err := c.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if message.RecipientID != callerID {
		return fmt.Errorf("%w: message %s is not addressed to %s", errors.ErrPermissionDenied, messageID, callerID)
	}
	if message.Seen {
		return nil
	}
	return c.messages.MarkSeen(ctx, messageID)
}

// ListConversation returns the messages between callerID and peerID, oldest first.
// It never marks anything as seen.
func (c *DeliveryCoordinator) ListConversation(ctx context.Context, callerID, peerID string) ([]domain.Message, error) {
	return c.messages.ListConversation(ctx, callerID, peerID)
}

// ListSidebar returns every other user with the count of their unseen messages
// to callerID, read from the store on each call.
func (c *DeliveryCoordinator) ListSidebar(ctx context.Context, callerID string) ([]domain.SidebarEntry, error) {
	entries, err := c.directory.ListDirectory(ctx, callerID)
	if err != nil {
		return nil, err
	}

	sidebar := make([]domain.SidebarEntry, 0, len(entries))
	for _, entry := range entries {
		unseen, err := c.messages.CountUnseen(ctx, callerID, entry.ID)
		if err != nil {
			return nil, err
		}
		sidebar = append(sidebar, domain.SidebarEntry{User: entry, Unseen: unseen})
	}
	return sidebar, nil
}

// UnseenBySender keeps only the peers with pending messages, keyed by peer id.
func UnseenBySender(sidebar []domain.SidebarEntry) map[string]int {
	pending := lo.Filter(sidebar, func(item domain.SidebarEntry, _ int) bool {
		return item.Unseen > 0
	})
	return lo.SliceToMap(pending, func(item domain.SidebarEntry) (string, int) {
		return item.User.ID, item.Unseen
	})
}

func (c *DeliveryCoordinator) Profile(ctx context.Context, userID string) (domain.User, error) {
	return c.directory.GetUser(ctx, userID)
}
