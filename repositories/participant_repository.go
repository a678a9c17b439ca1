package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clanhall/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user reference invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament reference invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id int) (*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus, includeUser bool) ([]*models.Participant, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db SQLExecutor
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

// Create inserts the row and relies on the
// (tournament_id, user_id) unique constraint for race safety: the
// service-level duplicate pre-check only produces a friendlier error
// earlier, it is not the guarantee.
func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := r.db.QueryRowContext(ctx, query,
		p.TournamentID,
		p.UserID,
		p.Status,
	).Scan(&p.ID, &p.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "tournament_participants_tournament_id_user_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "tournament_participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "tournament_participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	return rowScanner.Scan(
		&p.ID,
		&p.TournamentID,
		&p.UserID,
		&p.Status,
		&p.JoinedAt,
	)
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanParticipant(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT id, tournament_id, user_id, status, joined_at FROM tournament_participants WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	query := `SELECT id, tournament_id, user_id, status, joined_at FROM tournament_participants WHERE user_id = $1 AND tournament_id = $2`
	return r.findOne(ctx, query, userID, tournamentID)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus, includeUser bool) ([]*models.Participant, error) {
	var queryBuilder strings.Builder
	args := []interface{}{tournamentID}
	argCounter := 2

	queryBuilder.WriteString(`
		SELECT p.id, p.tournament_id, p.user_id, p.status, p.joined_at`)
	if includeUser {
		queryBuilder.WriteString(`,
			COALESCE(u.id, 0), COALESCE(u.nickname, ''), COALESCE(u.role, 'member'), u.avatar_key`)
	}
	queryBuilder.WriteString(`
		FROM tournament_participants p`)
	if includeUser {
		queryBuilder.WriteString(`
		LEFT JOIN users u ON p.user_id = u.id`)
	}
	queryBuilder.WriteString(" WHERE p.tournament_id = $1")

	if statusFilter != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND p.status = $%d", argCounter))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY p.joined_at ASC, p.id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		scanDest := []interface{}{&p.ID, &p.TournamentID, &p.UserID, &p.Status, &p.JoinedAt}
		if includeUser {
			scanDest = append(scanDest, &u.ID, &u.Nickname, &u.Role, &u.AvatarKey)
		}

		if scanErr := rows.Scan(scanDest...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		if includeUser && u.ID > 0 {
			p.User = &u
		}
		participants = append(participants, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	// Rejected applications do not hold a slot.
	query := `SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1 AND status <> 'rejected'`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	query := `UPDATE tournament_participants SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournament_participants WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
