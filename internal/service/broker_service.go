package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/provider"
	"github.com/dkosir/partnerhub/internal/repository"
)

var (
	ErrRoomNotFound = errors.New("chat room not found")
	// ErrRoomInconsistent marks a valid provider channel with no local mirror
	// row. Distinct from "channel has no messages".
	ErrRoomInconsistent = errors.New("no local room record for channel")
	ErrNoParticipants   = errors.New("at least one participant is required")
)

// BrokerService resolves a canonical (participant set, room type) key to a
// provider channel, creating one lazily, and owns the local mirror record.
type BrokerService struct {
	rooms    repository.RoomRepository
	users    repository.UserRepository
	provider provider.Client
}

func NewBrokerService(rooms repository.RoomRepository, users repository.UserRepository, client provider.Client) *BrokerService {
	return &BrokerService{rooms: rooms, users: users, provider: client}
}

// Resolve returns the room for the given participants, creating the provider
// channel and the mirror row when none exists. When knownChannelID is set the
// lookup goes by channel id instead of the canonical key.
//
// Concurrent creators of the same key are serialized by the unique index on
// room_id: the loser deletes its provider channel and returns the winner's row.
func (s *BrokerService) Resolve(ctx context.Context, participantIDs []int64, roomType domain.RoomType, knownChannelID string) (*domain.ChatRoom, error) {
	if knownChannelID != "" {
		room, err := s.rooms.GetByChannelID(ctx, knownChannelID)
		if err != nil {
			return nil, fmt.Errorf("looking up room by channel id: %w", err)
		}
		if room == nil {
			return nil, ErrRoomNotFound
		}
		return room, nil
	}

	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}

	roomID := domain.CanonicalRoomID(roomType, participantIDs)
	room, err := s.rooms.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("looking up room by key: %w", err)
	}
	if room != nil {
		return room, nil
	}

	return s.create(ctx, roomID, roomType, participantIDs)
}

func (s *BrokerService) create(ctx context.Context, roomID string, roomType domain.RoomType, participantIDs []int64) (*domain.ChatRoom, error) {
	metadata, err := s.buildMetadata(ctx, participantIDs)
	if err != nil {
		return nil, err
	}

	channelID, err := s.provider.CreateChannel(ctx, roomID, metadata)
	if err != nil {
		return nil, fmt.Errorf("creating provider channel: %w", err)
	}

	for _, id := range participantIDs {
		if err := s.provider.CreateMembership(ctx, channelID, domain.ChannelIdentity(id)); err != nil {
			log.Printf("broker: adding member %d to channel %s: %v", id, channelID, err)
		}
	}

	room := &domain.ChatRoom{
		ID:        uuid.New(),
		ChannelID: channelID,
		RoomID:    roomID,
		RoomType:  roomType,
		CreatedAt: time.Now(),
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateRoom) {
			// A concurrent resolve won the race. Keep its channel, drop ours.
			if delErr := s.provider.DeleteChannel(ctx, channelID); delErr != nil {
				log.Printf("broker: deleting losing channel %s: %v", channelID, delErr)
			}
			existing, getErr := s.rooms.GetByRoomID(ctx, roomID)
			if getErr != nil {
				return nil, fmt.Errorf("re-reading room after conflict: %w", getErr)
			}
			if existing == nil {
				return nil, ErrRoomNotFound
			}
			return existing, nil
		}
		return nil, fmt.Errorf("inserting room record: %w", err)
	}

	return room, nil
}

// DeleteChannel removes the provider channel and the mirror row. Rooms are
// only ever deleted through this call.
func (s *BrokerService) DeleteChannel(ctx context.Context, channelID string) error {
	room, err := s.rooms.GetByChannelID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("looking up room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}

	if err := s.provider.DeleteChannel(ctx, channelID); err != nil {
		return fmt.Errorf("deleting provider channel: %w", err)
	}
	if err := s.rooms.Delete(ctx, channelID); err != nil {
		return fmt.Errorf("deleting room record: %w", err)
	}
	return nil
}

// ListChannelsForUser returns every provider channel the user is a member of,
// with each channel's name overwritten by its metadata blob for display.
func (s *BrokerService) ListChannelsForUser(ctx context.Context, userID int64) ([]provider.Channel, error) {
	channels, err := s.provider.SearchChannelsByMember(ctx, domain.ChannelIdentity(userID))
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	for i := range channels {
		channels[i].Name = channels[i].Metadata.Encode()
	}
	return channels, nil
}

func (s *BrokerService) buildMetadata(ctx context.Context, participantIDs []int64) (domain.Metadata, error) {
	users, err := s.users.ListByIDs(ctx, participantIDs)
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}

	metadata := make(domain.Metadata, len(users))
	for _, u := range users {
		metadata[domain.ChannelIdentity(u.ID)] = u.DisplayName()
	}
	return metadata, nil
}
