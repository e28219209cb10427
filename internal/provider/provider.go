// Package provider is the adapter boundary to the external managed messaging
// service. Responses are decoded here, once, into typed results; nothing past
// this package branches on raw provider payloads.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/dkosir/partnerhub/internal/domain"
)

// Channel is a provider-side conversation container.
type Channel struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Metadata domain.Metadata `json:"metadata"`
}

// Message is one entry of a channel's provider-hosted history.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// MessagePage is one token-paginated slice of a channel's history.
type MessagePage struct {
	Messages  []Message `json:"messages"`
	NextToken string    `json:"next_token,omitempty"`
}

// SendOptions carries the classification and persistence flag of a send.
type SendOptions struct {
	Type    domain.MessageType
	Persist bool
}

// APIError is a provider call failure decoded at the adapter boundary.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider: %s (%s, status %d)", e.Message, e.Code, e.Status)
}

// Client is everything the chat core consumes from the messaging provider.
type Client interface {
	CreateChannel(ctx context.Context, name string, metadata domain.Metadata) (string, error)
	DeleteChannel(ctx context.Context, channelID string) error
	DescribeChannel(ctx context.Context, channelID string) (*Channel, error)
	UpdateChannel(ctx context.Context, channelID, name string, metadata domain.Metadata) error

	CreateMembership(ctx context.Context, channelID, memberID string) error
	DeleteMembership(ctx context.Context, channelID, memberID string) error
	ListMemberships(ctx context.Context, channelID string) ([]string, error)

	SendMessage(ctx context.Context, channelID, senderID, body string, opts SendOptions) (string, error)
	ListMessages(ctx context.Context, channelID, nextToken string) (*MessagePage, error)

	// SearchChannelsByMember returns channels whose membership includes the
	// given member key.
	SearchChannelsByMember(ctx context.Context, memberID string) ([]Channel, error)
}
