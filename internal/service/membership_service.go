package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/samber/lo"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/provider"
	"github.com/dkosir/partnerhub/internal/repository"
)

const defaultMemberBatchSize = 10

// MembershipService adds and removes channel members in batches, keeps the
// provider metadata blob in sync and recomputes the mirror's canonical key.
type MembershipService struct {
	rooms      repository.RoomRepository
	users      repository.UserRepository
	provider   provider.Client
	dispatcher EventDispatcher
	batchSize  int
}

func NewMembershipService(
	rooms repository.RoomRepository,
	users repository.UserRepository,
	client provider.Client,
	dispatcher EventDispatcher,
	batchSize int,
) *MembershipService {
	if batchSize <= 0 {
		batchSize = defaultMemberBatchSize
	}
	return &MembershipService{
		rooms:      rooms,
		users:      users,
		provider:   client,
		dispatcher: dispatcher,
		batchSize:  batchSize,
	}
}

// AddMembersResult reports which members made it into the channel and which
// were skipped after a provider failure.
type AddMembersResult struct {
	Added  []int64 `json:"added"`
	Failed []int64 `json:"failed,omitempty"`
}

// AddMembers registers newUserIDs with the provider channel in fixed-size
// batches. Batches run sequentially; within a batch the membership calls run
// concurrently and a failing member is logged and skipped without aborting
// its siblings or the request. Afterwards the metadata blob and the mirror's
// room key are rewritten and a membership event fans out to everyone in the
// merged metadata, old members and new. When no member lands the channel is
// left untouched and no notice or event goes out.
func (s *MembershipService) AddMembers(ctx context.Context, channelID string, newUserIDs []int64, actorID int64) (*AddMembersResult, error) {
	room, err := s.rooms.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("looking up room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	result := &AddMembersResult{}
	var mu sync.Mutex

	for _, batch := range lo.Chunk(lo.Uniq(newUserIDs), s.batchSize) {
		var wg sync.WaitGroup
		for _, userID := range batch {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				err := s.provider.CreateMembership(ctx, channelID, domain.ChannelIdentity(userID))
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Printf("membership: adding member %d to channel %s: %v", userID, channelID, err)
					result.Failed = append(result.Failed, userID)
					return
				}
				result.Added = append(result.Added, userID)
			}(userID)
		}
		wg.Wait()
	}

	// Nothing landed, nothing changed: no system message, no event.
	if len(result.Added) == 0 {
		return result, nil
	}

	metadata, err := s.mergeMetadata(ctx, channelID, result.Added)
	if err != nil {
		return nil, err
	}

	newRoomID, err := s.syncRoom(ctx, room, metadata)
	if err != nil {
		return nil, err
	}

	s.sendSystemMessage(ctx, channelID, actorID, s.addedNotice(ctx, actorID, len(result.Added)))

	s.dispatcher.Dispatch(metadata.ParticipantIDs(), EventMembershipChanged, MembershipEvent{
		ChannelID: channelID,
		RoomID:    newRoomID,
		ActorID:   actorID,
		Added:     result.Added,
		Metadata:  metadata,
	})

	return result, nil
}

// RemoveMember deletes the member from the provider channel, drops them from
// the metadata blob, recomputes the room key and fans the event out to the
// remaining members and, exactly once, to the removed user so their client
// can update local state.
func (s *MembershipService) RemoveMember(ctx context.Context, channelID string, userID, actorID int64) error {
	room, err := s.rooms.GetByChannelID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("looking up room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}

	if err := s.provider.DeleteMembership(ctx, channelID, domain.ChannelIdentity(userID)); err != nil {
		return fmt.Errorf("removing member %d: %w", userID, err)
	}

	ch, err := s.provider.DescribeChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("describing channel: %w", err)
	}
	metadata := ch.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	removedName := metadata[domain.ChannelIdentity(userID)]
	delete(metadata, domain.ChannelIdentity(userID))

	newRoomID, err := s.syncRoom(ctx, room, metadata)
	if err != nil {
		return err
	}

	s.sendSystemMessage(ctx, channelID, actorID, s.removedNotice(ctx, actorID, userID, removedName))

	// The removed user is no longer in the metadata, so they are appended
	// explicitly; they must still receive the event once.
	recipients := append(metadata.ParticipantIDs(), userID)
	s.dispatcher.Dispatch(recipients, EventMembershipChanged, MembershipEvent{
		ChannelID: channelID,
		RoomID:    newRoomID,
		ActorID:   actorID,
		Removed:   []int64{userID},
		Metadata:  metadata,
	})

	return nil
}

// mergeMetadata re-fetches the provider blob and merges in display names for
// the ids that were just added.
func (s *MembershipService) mergeMetadata(ctx context.Context, channelID string, addedIDs []int64) (domain.Metadata, error) {
	ch, err := s.provider.DescribeChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("describing channel: %w", err)
	}
	metadata := ch.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}

	if len(addedIDs) == 0 {
		return metadata, nil
	}

	added, err := s.users.ListByIDs(ctx, addedIDs)
	if err != nil {
		return nil, fmt.Errorf("loading added members: %w", err)
	}
	for _, u := range added {
		metadata[domain.ChannelIdentity(u.ID)] = u.DisplayName()
	}
	return metadata, nil
}

// syncRoom rewrites the provider metadata and persists the recomputed
// canonical key on the mirror row.
func (s *MembershipService) syncRoom(ctx context.Context, room *domain.ChatRoom, metadata domain.Metadata) (string, error) {
	newRoomID := domain.CanonicalRoomID(room.RoomType, metadata.ParticipantIDs())

	if err := s.provider.UpdateChannel(ctx, room.ChannelID, newRoomID, metadata); err != nil {
		return "", fmt.Errorf("updating channel metadata: %w", err)
	}
	if err := s.rooms.UpdateRoomID(ctx, room.ChannelID, newRoomID); err != nil {
		return "", fmt.Errorf("persisting room key: %w", err)
	}
	room.RoomID = newRoomID
	return newRoomID, nil
}

func (s *MembershipService) sendSystemMessage(ctx context.Context, channelID string, actorID int64, body string) {
	opts := provider.SendOptions{Type: domain.ClassifyMessage(body), Persist: true}
	if _, err := s.provider.SendMessage(ctx, channelID, domain.ChannelIdentity(actorID), body, opts); err != nil {
		log.Printf("membership: sending system message to channel %s: %v", channelID, err)
	}
}

func (s *MembershipService) addedNotice(ctx context.Context, actorID int64, count int) string {
	noun := "members"
	if count == 1 {
		noun = "member"
	}
	return fmt.Sprintf("%s added %d %s", s.displayName(ctx, actorID), count, noun)
}

func (s *MembershipService) removedNotice(ctx context.Context, actorID, userID int64, removedName string) string {
	if removedName == "" {
		removedName = domain.ChannelIdentity(userID)
	}
	if actorID == userID {
		return fmt.Sprintf("%s left the conversation", removedName)
	}
	return fmt.Sprintf("%s removed %s", s.displayName(ctx, actorID), removedName)
}

func (s *MembershipService) displayName(ctx context.Context, userID int64) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return domain.ChannelIdentity(userID)
	}
	return u.DisplayName()
}
