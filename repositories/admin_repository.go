package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clanhall/models"
	"github.com/lib/pq"
)

var (
	ErrAdminGrantNotFound = errors.New("tournament admin grant not found")
	ErrAdminGrantConflict = errors.New("user is already an admin of this tournament")
)

type TournamentAdminRepository interface {
	Create(ctx context.Context, grant *models.TournamentAdmin) error
	Exists(ctx context.Context, tournamentID, userID int) (bool, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentAdmin, error)
	Delete(ctx context.Context, tournamentID, userID int) error
}

type postgresTournamentAdminRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentAdminRepository(db *sql.DB) TournamentAdminRepository {
	return &postgresTournamentAdminRepository{db: db}
}

func (r *postgresTournamentAdminRepository) Create(ctx context.Context, grant *models.TournamentAdmin) error {
	query := `
		INSERT INTO tournament_admins (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query, grant.TournamentID, grant.UserID).Scan(&grant.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAdminGrantConflict
		}
		return fmt.Errorf("failed to create tournament admin grant: %w", err)
	}
	return nil
}

func (r *postgresTournamentAdminRepository) Exists(ctx context.Context, tournamentID, userID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tournament_admins WHERE tournament_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check tournament admin grant: %w", err)
	}
	return exists, nil
}

func (r *postgresTournamentAdminRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentAdmin, error) {
	query := `
		SELECT a.id, a.tournament_id, a.user_id,
		       COALESCE(u.id, 0), COALESCE(u.nickname, ''), COALESCE(u.role, 'member'), u.avatar_key
		FROM tournament_admins a
		LEFT JOIN users u ON a.user_id = u.id
		WHERE a.tournament_id = $1
		ORDER BY a.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament admins: %w", err)
	}
	defer rows.Close()

	grants := make([]*models.TournamentAdmin, 0)
	for rows.Next() {
		var g models.TournamentAdmin
		var u models.User
		if scanErr := rows.Scan(&g.ID, &g.TournamentID, &g.UserID, &u.ID, &u.Nickname, &u.Role, &u.AvatarKey); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament admin row: %w", scanErr)
		}
		if u.ID > 0 {
			g.User = &u
		}
		grants = append(grants, &g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament admin rows: %w", err)
	}
	return grants, nil
}

func (r *postgresTournamentAdminRepository) Delete(ctx context.Context, tournamentID, userID int) error {
	query := `DELETE FROM tournament_admins WHERE tournament_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tournament admin grant: %w", err)
	}
	return checkAffectedRows(result, ErrAdminGrantNotFound)
}
