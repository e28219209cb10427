package repository

import (
	"context"
	"errors"

	"github.com/dkosir/partnerhub/internal/domain"
)

// ErrDuplicateRoom is returned by Create when another row already holds the
// same canonical room key. The broker uses it to resolve concurrent
// find-or-create races in favor of the first writer.
var ErrDuplicateRoom = errors.New("room key already exists")

type RoomRepository interface {
	Create(ctx context.Context, room *domain.ChatRoom) error
	GetByChannelID(ctx context.Context, channelID string) (*domain.ChatRoom, error)
	GetByRoomID(ctx context.Context, roomID string) (*domain.ChatRoom, error)
	UpdateRoomID(ctx context.Context, channelID, roomID string) error
	Delete(ctx context.Context, channelID string) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
	// SearchByName returns users for which every token is a case-insensitive
	// substring of the first name or the last name.
	SearchByName(ctx context.Context, tokens []string) ([]domain.User, error)
}
