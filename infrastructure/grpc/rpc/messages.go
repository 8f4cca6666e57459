package rpc

import (
	"chat-relay/domain"
	"time"

	"github.com/samber/lo"
)

const (
	EventPresenceChanged = "presence_changed"
	EventMessageReceived = "message_received"
)

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text,omitempty"`
	Image       string    `json:"image,omitempty"`
	Seen        bool      `json:"seen"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"full_name"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

type SidebarUser struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	ProfilePic string `json:"profile_pic,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Unseen     int    `json:"unseen"`
}

type Presence struct {
	Online []string  `json:"online"`
	At     time.Time `json:"at"`
}

// ChatEvent is one item of the Connect stream. Exactly one of Presence or Message is set.
type ChatEvent struct {
	Type     string    `json:"type"`
	Presence *Presence `json:"presence,omitempty"`
	Message  *Message  `json:"message,omitempty"`
}

type ConnectRequest struct{}

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
}

type SendMessageResponse struct {
	Message Message `json:"message"`
}

// FetchConversationRequest asks for the messages following After, oldest
// first. An empty After starts at the beginning. Limit caps the page length
// when positive.
type FetchConversationRequest struct {
	PeerID string `json:"peer_id"`
	After  string `json:"after,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// FetchConversationResponse holds one page. Next is the cursor of the
// following page and is empty on the last one.
type FetchConversationResponse struct {
	Messages []Message `json:"messages"`
	Next     string    `json:"next,omitempty"`
}

type MarkSeenRequest struct {
	MessageID string `json:"message_id"`
}

type MarkSeenResponse struct {
	Success bool `json:"success"`
}

type FetchSidebarRequest struct{}

type FetchSidebarResponse struct {
	Users          []SidebarUser  `json:"users"`
	UnseenMessages map[string]int `json:"unseen_messages"`
}

type OnlineUsersRequest struct{}

type OnlineUsersResponse struct {
	Online []string `json:"online"`
}

type RegisterRequest struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Password   string `json:"password"`
	Bio        string `json:"bio,omitempty"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type MeRequest struct{}

// MeResponse describes the account behind the session token.
type MeResponse struct {
	User User `json:"user"`
}

func ToMessage(m domain.Message) Message {
	return Message{
		ID:          m.ID.String(),
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		Image:       m.Image,
		Seen:        m.Seen,
		CreatedAt:   m.CreatedAt,
	}
}

func ToMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(item domain.Message, _ int) Message {
		return ToMessage(item)
	})
}

func ToUser(u domain.User) User {
	return User{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePic,
		Bio:        u.Bio,
		CreatedAt:  u.CreatedAt,
	}
}

func ToSidebar(entries []domain.SidebarEntry, unseen map[string]int) FetchSidebarResponse {
	return FetchSidebarResponse{
		Users: lo.Map(entries, func(item domain.SidebarEntry, _ int) SidebarUser {
			return SidebarUser{
				ID:         item.User.ID,
				FullName:   item.User.FullName,
				ProfilePic: item.User.ProfilePic,
				Bio:        item.User.Bio,
				Unseen:     item.Unseen,
			}
		}),
		UnseenMessages: unseen,
	}
}
