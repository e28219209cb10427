package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/repository"
)

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.ChatRoom) error {
	query := `
		INSERT INTO chat_rooms (id, channel_id, room_id, room_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		room.ID, room.ChannelID, room.RoomID, room.RoomType, room.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrDuplicateRoom
	}
	return err
}

func (r *RoomRepo) GetByChannelID(ctx context.Context, channelID string) (*domain.ChatRoom, error) {
	query := `SELECT id, channel_id, room_id, room_type, created_at
		FROM chat_rooms WHERE channel_id = $1`
	var room domain.ChatRoom
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&room.ID, &room.ChannelID, &room.RoomID, &room.RoomType, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &room, err
}

func (r *RoomRepo) GetByRoomID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	query := `SELECT id, channel_id, room_id, room_type, created_at
		FROM chat_rooms WHERE room_id = $1`
	var room domain.ChatRoom
	err := r.pool.QueryRow(ctx, query, roomID).Scan(
		&room.ID, &room.ChannelID, &room.RoomID, &room.RoomType, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &room, err
}

func (r *RoomRepo) UpdateRoomID(ctx context.Context, channelID, roomID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE chat_rooms SET room_id = $1 WHERE channel_id = $2`, roomID, channelID)
	return err
}

func (r *RoomRepo) Delete(ctx context.Context, channelID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_rooms WHERE channel_id = $1`, channelID)
	return err
}
