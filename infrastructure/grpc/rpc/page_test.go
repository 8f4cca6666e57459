package rpc

import (
	"chat-relay/errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func conversation(n int, textSize int) []Message {
	messages := make([]Message, n)
	for i := range messages {
		messages[i] = Message{ID: fmt.Sprintf("m%d", i), SenderID: "alice", RecipientID: "bob", Text: strings.Repeat("x", textSize)}
	}
	return messages
}

func ids(messages []Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

func TestPageMessages_Walks_The_Whole_Conversation(t *testing.T) {
	req := require.New(t)
	messages := conversation(5, 1000)

	// Given a budget holding two messages per page
	var seen []string
	after, pages := "", 0
	for {
		// When
		page, next, err := PageMessages(messages, after, 0, 2500)
		req.NoError(err)
		pages++
		seen = append(seen, ids(page)...)
		if next == "" {
			break
		}
		req.Len(page, 2)
		after = next
	}

	// Then every message is read once in order
	req.Equal(ids(messages), seen)
	req.Equal(3, pages)
}

func TestPageMessages_Bounds(t *testing.T) {
	messages := conversation(4, 10)

	tests := []struct {
		name     string
		after    string
		limit    int
		budget   int
		wantIDs  []string
		wantNext string
	}{
		{"No bound returns everything", "", 0, 0, []string{"m0", "m1", "m2", "m3"}, ""},
		{"Limit cuts the page", "", 3, 0, []string{"m0", "m1", "m2"}, "m2"},
		{"Cursor resumes after the message", "m1", 0, 0, []string{"m2", "m3"}, ""},
		{"Cursor on the last message", "m3", 0, 0, []string{}, ""},
		{"Oversized message still goes out alone", "", 0, 1, []string{"m0"}, "m0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			page, next, err := PageMessages(messages, tt.after, tt.limit, tt.budget)

			req.NoError(err)
			req.Equal(tt.wantIDs, ids(page))
			req.Equal(tt.wantNext, next)
		})
	}
}

func TestPageMessages_Unknown_Cursor(t *testing.T) {
	req := require.New(t)

	_, _, err := PageMessages(conversation(2, 10), "ghost", 0, 0)

	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func TestMinMessageBytes(t *testing.T) {
	req := require.New(t)

	// A 3 MiB image encodes to 4 MiB of base64
	req.Equal(len(dataURIHeader)+4<<20+EnvelopeOverhead, MinMessageBytes(1024, 3<<20))
	// Escaped text dominates when images are tiny
	req.Equal(1024*maxJSONEscape+EnvelopeOverhead, MinMessageBytes(1024, 10))
}
