package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkosir/partnerhub/internal/domain"
)

// UserRepo reads the user table owned by the CRUD layer. The chat core never
// writes it.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, first_name, last_name, created_at FROM users WHERE id = $1`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	query := `SELECT id, first_name, last_name, created_at FROM users WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// SearchByName matches users where every token is a case-insensitive
// substring of the first or the last name.
func (r *UserRepo) SearchByName(ctx context.Context, tokens []string) ([]domain.User, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var conditions []string
	args := make([]any, 0, len(tokens))
	for i, token := range tokens {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", i+1, i+1))
		args = append(args, "%"+token+"%")
	}

	query := `SELECT id, first_name, last_name, created_at FROM users WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
