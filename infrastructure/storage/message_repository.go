package storage

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix      = "msg:"
	conversationPrefix = "conv:"
	unseenPrefix       = "unseen:"
)

// MessageRepository stores messages in badger.
//
//	msg:{id}                                  the record
//	conv:{low}:{high}:{created_ns}:{id}       conversation index, participants sorted
//	unseen:{recipient}:{sender}:{id}          present while the message is unseen
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger

	mu       sync.Mutex
	lastTime time.Time
	now      func() time.Time
}

// NewMessageRepository resumes the creation clock from the newest stored
// message, so a clock set back between restarts cannot break the index order.
func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	lastTime, err := latestCreatedAt(db)
	if err != nil {
		log.Warn("Could not read the newest message time", "error", err)
	}
	return &MessageRepository{db: db, log: log, now: time.Now, lastTime: lastTime}
}

// latestCreatedAt reads the creation times off the conversation keys,
// values are never loaded.
func latestCreatedAt(db *badger.DB) (time.Time, error) {
	var latest int64
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(conversationPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			parts := strings.Split(string(it.Item().Key()), ":")
			if len(parts) < 2 {
				continue
			}
			ns, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
			if err != nil {
				continue
			}
			latest = max(latest, ns)
		}
		return nil
	})
	if err != nil || latest == 0 {
		return time.Time{}, err
	}
	return time.Unix(0, latest).UTC(), nil
}

func messageKey(id uuid.UUID) []byte {
	return []byte(messagePrefix + id.String())
}

func conversationPrefixFor(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s%s:%s:", conversationPrefix, a, b)
}

func conversationKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s",
		conversationPrefixFor(m.SenderID, m.RecipientID), m.CreatedAt.UnixNano(), m.ID))
}

func unseenKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", unseenPrefix, m.RecipientID, m.SenderID, m.ID))
}

// nextTimestamp hands out strictly increasing creation times so that the
// conversation index never ties, even when the clock stands still.
func (r *MessageRepository) nextTimestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now().UTC()
	if !t.After(r.lastTime) {
		t = r.lastTime.Add(time.Nanosecond)
	}
	r.lastTime = t
	return t
}

func (r *MessageRepository) Create(ctx context.Context, senderID, recipientID string, payload domain.Payload) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
	}

	message := domain.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        payload.Text,
		Image:       payload.Image,
		CreatedAt:   r.nextTimestamp(),
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message.ID), EncodeMessage(message)); err != nil {
			return err
		}
		if err := txn.Set(conversationKey(message), message.ID[:]); err != nil {
			return err
		}
		return txn.Set(unseenKey(message), nil)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: create message: %v", errors.ErrPersistenceFailure, err)
	}

	r.log.Debug("Message stored", "message_id", message.ID, "sender_id", senderID, "recipient_id", recipientID)
	return message, nil
}

func (r *MessageRepository) GetMessage(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
	}

	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		message, err = getMessage(txn, id)
		return err
	})
	if err != nil {
		return domain.Message{}, wrapReadError(err)
	}
	return message, nil
}

// ListConversation returns every message between a and b, oldest first.
func (r *MessageRepository) ListConversation(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
	}

	prefix := []byte(conversationPrefixFor(userA, userB))
	messages := make([]domain.Message, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			id, err := uuid.FromBytes(raw)
			if err != nil {
				return err
			}
			message, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, wrapReadError(err)
	}
	return messages, nil
}

// MarkSeen sets the seen flag and drops the unseen index entry in one transaction.
func (r *MessageRepository) MarkSeen(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if message.Seen {
			return nil
		}
		message.Seen = true
		if err := txn.Set(messageKey(id), EncodeMessage(message)); err != nil {
			return err
		}
		return txn.Delete(unseenKey(message))
	})
	if err != nil {
		return wrapReadError(err)
	}
	return nil
}

func (r *MessageRepository) CountUnseen(ctx context.Context, recipientID, senderID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
	}

	prefix := []byte(fmt.Sprintf("%s%s:%s:", unseenPrefix, recipientID, senderID))
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if bytes.HasPrefix(it.Item().Key(), prefix) {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count unseen: %v", errors.ErrPersistenceFailure, err)
	}
	return count, nil
}

func getMessage(txn *badger.Txn, id uuid.UUID) (domain.Message, error) {
	item, err := txn.Get(messageKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
		}
		return domain.Message{}, err
	}
	var message domain.Message
	err = item.Value(func(val []byte) error {
		message, err = DecodeMessage(val)
		return err
	})
	return message, err
}

// wrapReadError keeps not-found errors as they are and files everything else
// under persistence failures.
func wrapReadError(err error) error {
	if errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
}
