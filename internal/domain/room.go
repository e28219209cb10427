package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type RoomType string

const (
	RoomTypePersonal RoomType = "PERSONAL"
	RoomTypeGroup    RoomType = "GROUP"
)

// ChatRoom is the local mirror of a provider-hosted channel. ChannelID is the
// provider's identifier and never changes; RoomID is the canonical key derived
// from the room type and the current participant set.
type ChatRoom struct {
	ID        uuid.UUID `json:"id"`
	ChannelID string    `json:"channel_id"`
	RoomID    string    `json:"room_id"`
	RoomType  RoomType  `json:"room_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ParticipantIDs parses the participant set back out of the canonical key.
func (r *ChatRoom) ParticipantIDs() []int64 {
	return ParticipantsFromRoomID(r.RoomID)
}

// CanonicalRoomID builds the deterministic room key for a participant set:
// ids are deduplicated and sorted numerically, so argument order never
// changes the key. Recomputed fresh on every membership change.
func CanonicalRoomID(roomType RoomType, participantIDs []int64) string {
	ids := lo.Uniq(participantIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, string(roomType))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, "-")
}

// ParticipantsFromRoomID extracts the trailing id segments of a room key.
// Non-numeric segments (the room type prefix) are skipped.
func ParticipantsFromRoomID(roomID string) []int64 {
	var ids []int64
	for _, part := range strings.Split(roomID, "-") {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
