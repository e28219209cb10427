package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/provider"
)

func newMessageService(rooms *fakeRoomRepo, users *fakeUserRepo, prov *fakeProvider, disp *recordingDispatcher) *MessageService {
	broker := NewBrokerService(rooms, users, prov)
	return NewMessageService(broker, rooms, users, prov, disp)
}

func TestSendAutoCreatesChannelOnFirstMessage(t *testing.T) {
	rooms := &fakeRoomRepo{}
	users := testUsers()
	prov := newFakeProvider()
	disp := &recordingDispatcher{}
	ms := newMessageService(rooms, users, prov, disp)
	ctx := context.Background()

	sent, err := ms.Send(ctx, SendInput{
		ParticipantIDs: []int64{10, 20},
		SenderID:       10,
		Body:           "hi",
	})
	require.NoError(t, err)
	require.Equal(t, "PERSONAL-10-20", sent.RoomID)
	require.Equal(t, domain.MessageTypeControl, sent.Type)

	ch := prov.channels[sent.ChannelID]
	require.NotNil(t, ch)
	require.Equal(t, "PERSONAL-10-20", ch.Name)

	record := prov.lastSent()
	require.Equal(t, "10", record.SenderID)
	require.True(t, record.Opts.Persist)
	require.Equal(t, domain.MessageTypeControl, record.Opts.Type)

	require.Len(t, disp.events, 1)
	evt := disp.events[0]
	require.Equal(t, EventMessageNew, evt.Event)
	require.ElementsMatch(t, []int64{10, 20}, evt.UserIDs)

	payload, ok := evt.Payload.(MessageEvent)
	require.True(t, ok)
	require.Equal(t, "John Smith", payload.SenderName)
	require.Equal(t, "hi", payload.Body)
	require.Equal(t, domain.Metadata{"10": "John Smith", "20": "Jane Doe"}, payload.Metadata)

	// A later resolve with reversed participants lands on the same channel.
	broker := NewBrokerService(rooms, users, prov)
	room, err := broker.Resolve(ctx, []int64{20, 10}, domain.RoomTypePersonal, "")
	require.NoError(t, err)
	require.Equal(t, sent.ChannelID, room.ChannelID)
	require.Equal(t, 1, prov.createCalls)
}

func TestSendClassifiesByByteLength(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.MessageType
	}{
		{"30 bytes is control", strings.Repeat("a", 30), domain.MessageTypeControl},
		{"31 bytes is standard", strings.Repeat("a", 31), domain.MessageTypeStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := newFakeProvider()
			ms := newMessageService(&fakeRoomRepo{}, testUsers(), prov, &recordingDispatcher{})

			sent, err := ms.Send(context.Background(), SendInput{
				ParticipantIDs: []int64{10, 20},
				SenderID:       10,
				Body:           tt.body,
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, sent.Type)
			require.Equal(t, tt.want, prov.lastSent().Opts.Type)
		})
	}
}

func TestSendToUnknownChannelID(t *testing.T) {
	ms := newMessageService(&fakeRoomRepo{}, testUsers(), newFakeProvider(), &recordingDispatcher{})

	_, err := ms.Send(context.Background(), SendInput{
		ChannelID: "ch-nope",
		SenderID:  10,
		Body:      "hello",
	})
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSendSucceedsWhenFanoutDegrades(t *testing.T) {
	rooms := &fakeRoomRepo{}
	users := testUsers()
	prov := newFakeProvider()
	disp := &recordingDispatcher{}
	ms := newMessageService(rooms, users, prov, disp)
	ctx := context.Background()

	room := seedRoom(t, rooms, users, prov)
	prov.describeErr = errors.New("provider describe unavailable")

	sent, err := ms.Send(ctx, SendInput{ChannelID: room.ChannelID, SenderID: 10, Body: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, sent.MessageID)

	// The message was dispatched provider-side; only the push was skipped.
	require.Len(t, prov.sent, 1)
	require.Empty(t, disp.events)
}

func TestListMessagesAttachesRoomContext(t *testing.T) {
	rooms := &fakeRoomRepo{}
	users := testUsers()
	prov := newFakeProvider()
	ms := newMessageService(rooms, users, prov, &recordingDispatcher{})
	ctx := context.Background()

	room := seedRoom(t, rooms, users, prov)
	prov.page = &provider.MessagePage{
		Messages: []provider.Message{
			{ID: "msg-1", SenderID: "10", Body: "hello", Type: "STANDARD", CreatedAt: time.Now()},
		},
		NextToken: "tok-2",
	}

	list, err := ms.ListMessages(ctx, room.ChannelID, "tok-1")
	require.NoError(t, err)
	require.Len(t, list.Messages, 1)
	require.Equal(t, "tok-2", list.NextToken)
	require.Equal(t, domain.RoomTypePersonal, list.RoomType)
	require.Equal(t, []int64{10, 20}, list.ParticipantIDs)
	require.Equal(t, domain.Metadata{"10": "John Smith", "20": "Jane Doe"}, list.Metadata)
}

func TestListMessagesMissingMirrorIsInconsistent(t *testing.T) {
	prov := newFakeProvider()
	ms := newMessageService(&fakeRoomRepo{}, testUsers(), prov, &recordingDispatcher{})

	// The provider knows the channel; the mirror does not. Distinct from an
	// empty history.
	prov.page = &provider.MessagePage{}

	_, err := ms.ListMessages(context.Background(), "ch-orphan", "")
	require.ErrorIs(t, err, ErrRoomInconsistent)
	require.NotErrorIs(t, err, ErrRoomNotFound)
}
