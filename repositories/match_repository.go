package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clanhall/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchNumberConflict    = errors.New("match number already taken for this round")
	ErrMatchTournamentInvalid = errors.New("match tournament reference invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	MaxNumberByRound(ctx context.Context, tournamentID, round int) (int, error)
	UpdateResult(ctx context.Context, id int, winnerID *int, score *string, replayKey *string, status models.MatchStatus) error
	Update(ctx context.Context, match *models.Match) error
	UpdateReplayKey(ctx context.Context, id int, replayKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, round, match_number, player1_id, player2_id,
	winner_id, score, status, replay_key, scheduled_at, created_at`

func scanMatch(row interface{ Scan(dest ...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.MatchNumber, &m.Player1ID, &m.Player2ID,
		&m.WinnerID, &m.Score, &m.Status, &m.ReplayKey, &m.ScheduledAt, &m.CreatedAt,
	)
}

// Create inserts the row. A concurrent insert with the same
// (tournament_id, round, match_number) trips the unique constraint and
// surfaces as ErrMatchNumberConflict; the service retries with a fresh
// number.
func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, round, match_number, player1_id, player2_id,
			winner_id, score, status, scheduled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.MatchNumber, m.Player1ID, m.Player2ID,
		m.WinnerID, m.Score, m.Status, m.ScheduledAt,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "matches_tournament_id_round_match_number_key" {
					return ErrMatchNumberConflict
				}
			case "23503": // foreign_key_violation
				return ErrMatchTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY round ASC, match_number ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

// MaxNumberByRound returns the highest match number in the round, 0
// when the round is empty. Deleted matches leave gaps, so the next free
// number is max+1, never count+1.
func (r *postgresMatchRepository) MaxNumberByRound(ctx context.Context, tournamentID, round int) (int, error) {
	query := `SELECT COALESCE(MAX(match_number), 0) FROM matches WHERE tournament_id = $1 AND round = $2`
	var max int
	if err := r.db.QueryRowContext(ctx, query, tournamentID, round).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max match number for tournament %d round %d: %w", tournamentID, round, err)
	}
	return max, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, id int, winnerID *int, score *string, replayKey *string, status models.MatchStatus) error {
	query := `
		UPDATE matches
		SET winner_id = $1, score = $2, replay_key = COALESCE($3, replay_key), status = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, winnerID, score, replayKey, status, id)
	if err != nil {
		return fmt.Errorf("failed to update match result: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches
		SET player1_id = $1, player2_id = $2, winner_id = $3, score = $4,
		    status = $5, scheduled_at = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		m.Player1ID, m.Player2ID, m.WinnerID, m.Score,
		m.Status, m.ScheduledAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", m.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateReplayKey(ctx context.Context, id int, replayKey *string) error {
	query := `UPDATE matches SET replay_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, replayKey, id)
	if err != nil {
		return fmt.Errorf("failed to update match replay key: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// Delete removes the row only; sibling match numbers are not reshuffled,
// gaps in a round are permitted.
func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
