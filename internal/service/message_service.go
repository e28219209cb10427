package service

import (
	"context"
	"fmt"
	"log"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/provider"
	"github.com/dkosir/partnerhub/internal/repository"
)

// MessageService classifies, sends and fans out chat messages. Sending to a
// participant set with no channel yet creates one through the broker.
type MessageService struct {
	broker     *BrokerService
	rooms      repository.RoomRepository
	users      repository.UserRepository
	provider   provider.Client
	dispatcher EventDispatcher
}

func NewMessageService(
	broker *BrokerService,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	client provider.Client,
	dispatcher EventDispatcher,
) *MessageService {
	return &MessageService{
		broker:     broker,
		rooms:      rooms,
		users:      users,
		provider:   client,
		dispatcher: dispatcher,
	}
}

type SendInput struct {
	// ChannelID targets an existing channel directly. When empty the channel
	// is resolved (and created if needed) from ParticipantIDs and RoomType.
	ChannelID      string          `json:"channel_id,omitempty"`
	ParticipantIDs []int64         `json:"participant_ids,omitempty"`
	RoomType       domain.RoomType `json:"room_type,omitempty"`
	SenderID       int64           `json:"-"`
	Body           string          `json:"body"`
}

type SentMessage struct {
	MessageID string             `json:"message_id"`
	ChannelID string             `json:"channel_id"`
	RoomID    string             `json:"room_id"`
	Type      domain.MessageType `json:"type"`
}

type MessageList struct {
	Messages       []provider.Message `json:"messages"`
	NextToken      string             `json:"next_token,omitempty"`
	RoomType       domain.RoomType    `json:"room_type"`
	ParticipantIDs []int64            `json:"participant_ids"`
	Metadata       domain.Metadata    `json:"metadata"`
}

// Send dispatches the message through the provider and fans it out to every
// participant's live connections. Fanout is fire-and-forget; only the
// provider send can fail the call.
func (s *MessageService) Send(ctx context.Context, input SendInput) (*SentMessage, error) {
	roomType := input.RoomType
	if roomType == "" {
		roomType = domain.RoomTypePersonal
	}

	room, err := s.broker.Resolve(ctx, input.ParticipantIDs, roomType, input.ChannelID)
	if err != nil {
		return nil, err
	}

	msgType := domain.ClassifyMessage(input.Body)
	sender := domain.ChannelIdentity(input.SenderID)

	messageID, err := s.provider.SendMessage(ctx, room.ChannelID, sender, input.Body, provider.SendOptions{
		Type:    msgType,
		Persist: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.fanOut(ctx, room, messageID, input.SenderID, input.Body, msgType)

	return &SentMessage{
		MessageID: messageID,
		ChannelID: room.ChannelID,
		RoomID:    room.RoomID,
		Type:      msgType,
	}, nil
}

// ListMessages is a paginated passthrough to the provider, annotated with the
// local room context the provider page lacks. A valid channel with no mirror
// row is an inconsistency, not an empty history.
func (s *MessageService) ListMessages(ctx context.Context, channelID, pageToken string) (*MessageList, error) {
	page, err := s.provider.ListMessages(ctx, channelID, pageToken)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	room, err := s.rooms.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("looking up room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomInconsistent
	}

	var metadata domain.Metadata
	if ch, err := s.provider.DescribeChannel(ctx, channelID); err != nil {
		log.Printf("gateway: describing channel %s: %v", channelID, err)
	} else {
		metadata = ch.Metadata
	}

	return &MessageList{
		Messages:       page.Messages,
		NextToken:      page.NextToken,
		RoomType:       room.RoomType,
		ParticipantIDs: room.ParticipantIDs(),
		Metadata:       metadata,
	}, nil
}

// fanOut pushes the sent message to every participant. The message is already
// persisted provider-side; any failure here only degrades real-time delivery.
func (s *MessageService) fanOut(ctx context.Context, room *domain.ChatRoom, messageID string, senderID int64, body string, msgType domain.MessageType) {
	ch, err := s.provider.DescribeChannel(ctx, room.ChannelID)
	if err != nil {
		log.Printf("gateway: describing channel %s for fanout: %v", room.ChannelID, err)
		return
	}

	senderName := ch.Metadata[domain.ChannelIdentity(senderID)]
	if senderName == "" {
		if u, err := s.users.GetByID(ctx, senderID); err == nil && u != nil {
			senderName = u.DisplayName()
		}
	}

	s.dispatcher.Dispatch(room.ParticipantIDs(), EventMessageNew, MessageEvent{
		ChannelID:  room.ChannelID,
		RoomID:     room.RoomID,
		MessageID:  messageID,
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		Type:       msgType,
		Metadata:   ch.Metadata,
	})
}
