package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/provider"
	"github.com/dkosir/partnerhub/internal/repository"
)

// fakeRoomRepo is an in-memory RoomRepository.
type fakeRoomRepo struct {
	mu       sync.Mutex
	rooms    []*domain.ChatRoom
	onCreate func(*domain.ChatRoom) error
}

func (r *fakeRoomRepo) Create(_ context.Context, room *domain.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onCreate != nil {
		if err := r.onCreate(room); err != nil {
			return err
		}
	}
	for _, existing := range r.rooms {
		if existing.RoomID == room.RoomID {
			return repository.ErrDuplicateRoom
		}
	}
	clone := *room
	r.rooms = append(r.rooms, &clone)
	return nil
}

func (r *fakeRoomRepo) GetByChannelID(_ context.Context, channelID string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.ChannelID == channelID {
			clone := *room
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeRoomRepo) GetByRoomID(_ context.Context, roomID string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.RoomID == roomID {
			clone := *room
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeRoomRepo) UpdateRoomID(_ context.Context, channelID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.ChannelID == channelID {
			room.RoomID = roomID
			return nil
		}
	}
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, room := range r.rooms {
		if room.ChannelID == channelID {
			r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[int64]domain.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []int64) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SearchByName(_ context.Context, tokens []string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if matchesAllTokens(u, tokens) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchesAllTokens(u domain.User, tokens []string) bool {
	first := strings.ToLower(u.FirstName)
	last := strings.ToLower(u.LastName)
	for _, token := range tokens {
		token = strings.ToLower(token)
		if !strings.Contains(first, token) && !strings.Contains(last, token) {
			return false
		}
	}
	return true
}

type sentRecord struct {
	ChannelID string
	SenderID  string
	Body      string
	Opts      provider.SendOptions
}

// fakeProvider is an in-memory provider.Client.
type fakeProvider struct {
	mu       sync.Mutex
	nextID   int
	channels map[string]*provider.Channel
	members  map[string]map[string]struct{}
	sent     []sentRecord

	deletedChannels []string
	createCalls     int

	failMembership map[string]bool
	describeErr    error
	page           *provider.MessagePage
	listErr        error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		channels:       make(map[string]*provider.Channel),
		members:        make(map[string]map[string]struct{}),
		failMembership: make(map[string]bool),
	}
}

func (p *fakeProvider) CreateChannel(_ context.Context, name string, metadata domain.Metadata) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	p.nextID++
	id := fmt.Sprintf("ch-%d", p.nextID)
	p.channels[id] = &provider.Channel{ID: id, Name: name, Metadata: cloneMetadata(metadata)}
	p.members[id] = make(map[string]struct{})
	return id, nil
}

func (p *fakeProvider) DeleteChannel(_ context.Context, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.channels, channelID)
	delete(p.members, channelID)
	p.deletedChannels = append(p.deletedChannels, channelID)
	return nil
}

func (p *fakeProvider) DescribeChannel(_ context.Context, channelID string) (*provider.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.describeErr != nil {
		return nil, p.describeErr
	}
	ch, ok := p.channels[channelID]
	if !ok {
		return nil, &provider.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "no such channel"}
	}
	return &provider.Channel{ID: ch.ID, Name: ch.Name, Metadata: cloneMetadata(ch.Metadata)}, nil
}

func (p *fakeProvider) UpdateChannel(_ context.Context, channelID, name string, metadata domain.Metadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.channels[channelID]
	if !ok {
		return &provider.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "no such channel"}
	}
	ch.Name = name
	ch.Metadata = cloneMetadata(metadata)
	return nil
}

func (p *fakeProvider) CreateMembership(_ context.Context, channelID, memberID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failMembership[memberID] {
		return &provider.APIError{Status: http.StatusTooManyRequests, Code: "THROTTLED", Message: "rate exceeded"}
	}
	if p.members[channelID] == nil {
		p.members[channelID] = make(map[string]struct{})
	}
	p.members[channelID][memberID] = struct{}{}
	return nil
}

func (p *fakeProvider) DeleteMembership(_ context.Context, channelID, memberID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.members[channelID], memberID)
	return nil
}

func (p *fakeProvider) ListMemberships(_ context.Context, channelID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for m := range p.members[channelID] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (p *fakeProvider) SendMessage(_ context.Context, channelID, senderID, body string, opts provider.SendOptions) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.sent = append(p.sent, sentRecord{ChannelID: channelID, SenderID: senderID, Body: body, Opts: opts})
	return fmt.Sprintf("msg-%d", p.nextID), nil
}

func (p *fakeProvider) ListMessages(_ context.Context, channelID, nextToken string) (*provider.MessagePage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listErr != nil {
		return nil, p.listErr
	}
	if p.page != nil {
		return p.page, nil
	}
	return &provider.MessagePage{}, nil
}

func (p *fakeProvider) SearchChannelsByMember(_ context.Context, memberID string) ([]provider.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []provider.Channel
	var ids []string
	for id := range p.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := p.members[id][memberID]; ok {
			ch := p.channels[id]
			out = append(out, provider.Channel{ID: ch.ID, Name: ch.Name, Metadata: cloneMetadata(ch.Metadata)})
		}
	}
	return out, nil
}

func (p *fakeProvider) lastSent() sentRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent[len(p.sent)-1]
}

func cloneMetadata(m domain.Metadata) domain.Metadata {
	clone := make(domain.Metadata, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

type dispatched struct {
	UserIDs []int64
	Event   string
	Payload any
}

// recordingDispatcher captures fanout synchronously.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []dispatched
}

func (d *recordingDispatcher) Dispatch(userIDs []int64, event string, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, dispatched{UserIDs: userIDs, Event: event, Payload: payload})
}

func testUsers() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]domain.User{
		10: {ID: 10, FirstName: "John", LastName: "Smith"},
		20: {ID: 20, FirstName: "Jane", LastName: "Doe"},
		30: {ID: 30, FirstName: "Bob", LastName: "Stone"},
		40: {ID: 40, FirstName: "Alice", LastName: "Reed"},
	}}
}
