package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalRoomID(t *testing.T) {
	tests := []struct {
		name         string
		roomType     RoomType
		participants []int64
		want         string
	}{
		{"sorted pair", RoomTypePersonal, []int64{10, 20}, "PERSONAL-10-20"},
		{"reversed pair", RoomTypePersonal, []int64{20, 10}, "PERSONAL-10-20"},
		{"duplicates collapse", RoomTypeGroup, []int64{5, 5, 3}, "GROUP-3-5"},
		{"numeric not lexicographic sort", RoomTypeGroup, []int64{100, 2, 30}, "GROUP-2-30-100"},
		{"single participant", RoomTypePersonal, []int64{7}, "PERSONAL-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanonicalRoomID(tt.roomType, tt.participants))
		})
	}
}

func TestParticipantsFromRoomID(t *testing.T) {
	require.Equal(t, []int64{10, 20}, ParticipantsFromRoomID("PERSONAL-10-20"))
	require.Equal(t, []int64{2, 30, 100}, ParticipantsFromRoomID("GROUP-2-30-100"))
	require.Empty(t, ParticipantsFromRoomID("GROUP"))
}

func TestCanonicalRoomIDRoundTrip(t *testing.T) {
	roomID := CanonicalRoomID(RoomTypeGroup, []int64{42, 7, 99})
	require.Equal(t, []int64{7, 42, 99}, ParticipantsFromRoomID(roomID))
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want MessageType
	}{
		{"short body", "hi", MessageTypeControl},
		{"empty body", "", MessageTypeControl},
		{"exactly 30 bytes", strings.Repeat("a", 30), MessageTypeControl},
		{"31 bytes", strings.Repeat("a", 31), MessageTypeStandard},
		{"30 bytes multibyte", strings.Repeat("€", 10), MessageTypeControl},
		{"31 bytes multibyte", strings.Repeat("€", 10) + "a", MessageTypeStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyMessage(tt.body))
		})
	}
}

func TestMetadataParticipantIDs(t *testing.T) {
	m := Metadata{"20": "Jane Doe", "10": "John Smith", "bogus": "ignored"}
	require.Equal(t, []int64{10, 20}, m.ParticipantIDs())
}

func TestMetadataEncode(t *testing.T) {
	m := Metadata{"10": "John Smith"}
	require.JSONEq(t, `{"10":"John Smith"}`, m.Encode())
}
