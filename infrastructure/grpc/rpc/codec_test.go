package rpc

import (
	"chat-relay/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Is_Registered(t *testing.T) {
	req := require.New(t)

	codec := encoding.GetCodec(CodecName)

	req.NotNil(codec)
	req.Equal(CodecName, codec.Name())
}

func TestCodec_Carries_ChatEvent(t *testing.T) {
	req := require.New(t)
	codec := jsonCodec{}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	message := ToMessage(domain.Message{ID: uuid.New(), SenderID: "alice", RecipientID: "bob", Text: "hi", CreatedAt: at})

	data, err := codec.Marshal(&ChatEvent{Type: EventMessageReceived, Message: &message})
	req.NoError(err)
	req.NotContains(string(data), "presence")

	var decoded ChatEvent
	req.NoError(codec.Unmarshal(data, &decoded))
	req.Equal(EventMessageReceived, decoded.Type)
	req.Equal(message, *decoded.Message)
	req.Nil(decoded.Presence)
}

func TestToSidebar(t *testing.T) {
	req := require.New(t)
	entries := []domain.SidebarEntry{
		{User: domain.DirectoryEntry{ID: "alice", FullName: "Alice"}, Unseen: 2},
		{User: domain.DirectoryEntry{ID: "carol", FullName: "Carol"}},
	}

	response := ToSidebar(entries, map[string]int{"alice": 2})

	req.Len(response.Users, 2)
	req.Equal(2, response.Users[0].Unseen)
	req.Equal("Carol", response.Users[1].FullName)
	req.Equal(map[string]int{"alice": 2}, response.UnseenMessages)
}
