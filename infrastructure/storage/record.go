package storage

import (
	"chat-relay/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored in protobuf wire format so that fields can be added
// without rewriting existing values. Unknown fields are skipped on read.

const (
	messageFieldID          protowire.Number = 1
	messageFieldSender      protowire.Number = 2
	messageFieldRecipient   protowire.Number = 3
	messageFieldText        protowire.Number = 4
	messageFieldImage       protowire.Number = 5
	messageFieldSeen        protowire.Number = 6
	messageFieldCreatedAtNs protowire.Number = 7
)

const (
	userFieldID           protowire.Number = 1
	userFieldEmail        protowire.Number = 2
	userFieldFullName     protowire.Number = 3
	userFieldProfilePic   protowire.Number = 4
	userFieldBio          protowire.Number = 5
	userFieldPasswordHash protowire.Number = 6
	userFieldCreatedAtNs  protowire.Number = 7
)

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func EncodeMessage(m domain.Message) []byte {
	var b []byte
	b = appendString(b, messageFieldID, m.ID.String())
	b = appendString(b, messageFieldSender, m.SenderID)
	b = appendString(b, messageFieldRecipient, m.RecipientID)
	b = appendString(b, messageFieldText, m.Text)
	b = appendString(b, messageFieldImage, m.Image)
	b = appendVarint(b, messageFieldSeen, protowire.EncodeBool(m.Seen))
	b = appendVarint(b, messageFieldCreatedAtNs, uint64(m.CreatedAt.UnixNano()))
	return b
}

func DecodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := decodeFields(b, func(num protowire.Number, s string, v uint64) error {
		switch num {
		case messageFieldID:
			id, err := uuid.Parse(s)
			if err != nil {
				return err
			}
			m.ID = id
		case messageFieldSender:
			m.SenderID = s
		case messageFieldRecipient:
			m.RecipientID = s
		case messageFieldText:
			m.Text = s
		case messageFieldImage:
			m.Image = s
		case messageFieldSeen:
			m.Seen = protowire.DecodeBool(v)
		case messageFieldCreatedAtNs:
			m.CreatedAt = time.Unix(0, int64(v)).UTC()
		}
		return nil
	})
	return m, err
}

func encodeUser(u domain.User) []byte {
	var b []byte
	b = appendString(b, userFieldID, u.ID)
	b = appendString(b, userFieldEmail, u.Email)
	b = appendString(b, userFieldFullName, u.FullName)
	b = appendString(b, userFieldProfilePic, u.ProfilePic)
	b = appendString(b, userFieldBio, u.Bio)
	b = appendString(b, userFieldPasswordHash, u.PasswordHash)
	b = appendVarint(b, userFieldCreatedAtNs, uint64(u.CreatedAt.UnixNano()))
	return b
}

func decodeUser(b []byte) (domain.User, error) {
	var u domain.User
	err := decodeFields(b, func(num protowire.Number, s string, v uint64) error {
		switch num {
		case userFieldID:
			u.ID = s
		case userFieldEmail:
			u.Email = s
		case userFieldFullName:
			u.FullName = s
		case userFieldProfilePic:
			u.ProfilePic = s
		case userFieldBio:
			u.Bio = s
		case userFieldPasswordHash:
			u.PasswordHash = s
		case userFieldCreatedAtNs:
			u.CreatedAt = time.Unix(0, int64(v)).UTC()
		}
		return nil
	})
	return u, err
}

// decodeFields walks a wire-format record, passing string fields as s and varints as v.
func decodeFields(b []byte, field func(num protowire.Number, s string, v uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("record tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("record field %d: %w", num, protowire.ParseError(n))
			}
			if err := field(num, s, 0); err != nil {
				return fmt.Errorf("record field %d: %w", num, err)
			}
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("record field %d: %w", num, protowire.ParseError(n))
			}
			if err := field(num, "", v); err != nil {
				return fmt.Errorf("record field %d: %w", num, err)
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("record field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
