package service

import "github.com/dkosir/partnerhub/internal/domain"

// Event names pushed to live connections.
const (
	EventMessageNew        = "message.new"
	EventMembershipChanged = "membership.changed"
)

// EventDispatcher fans one event out to all live connections of a set of
// users, best-effort. Implemented by fanout.Dispatcher.
type EventDispatcher interface {
	Dispatch(userIDs []int64, event string, payload any)
}

// MessageEvent is the payload of EventMessageNew. It carries the sender's
// display name and the channel's full metadata blob so clients can render
// without an extra lookup.
type MessageEvent struct {
	ChannelID  string             `json:"channel_id"`
	RoomID     string             `json:"room_id"`
	MessageID  string             `json:"message_id"`
	SenderID   int64              `json:"sender_id"`
	SenderName string             `json:"sender_name"`
	Body       string             `json:"body"`
	Type       domain.MessageType `json:"type"`
	Metadata   domain.Metadata    `json:"metadata"`
}

// MembershipEvent is the payload of EventMembershipChanged.
type MembershipEvent struct {
	ChannelID string          `json:"channel_id"`
	RoomID    string          `json:"room_id"`
	ActorID   int64           `json:"actor_id"`
	Added     []int64         `json:"added,omitempty"`
	Removed   []int64         `json:"removed,omitempty"`
	Metadata  domain.Metadata `json:"metadata"`
}
