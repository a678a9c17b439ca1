package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clanhall/models"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the read-side adapter over the identity
// collaborator's users table. Account creation and authentication live
// outside this core.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.User, error)
}

type postgresUserRepository struct {
	db SQLExecutor
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, nickname, role, avatar_key, created_at FROM users WHERE id = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Nickname, &u.Role, &u.AvatarKey, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %d: %w", id, err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByIDs(ctx context.Context, ids []int) (map[int]*models.User, error) {
	users := make(map[int]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT id, nickname, role, avatar_key, created_at FROM users WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if scanErr := rows.Scan(&u.ID, &u.Nickname, &u.Role, &u.AvatarKey, &u.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", scanErr)
		}
		users[u.ID] = &u
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
