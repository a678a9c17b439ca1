package services

import (
	"context"
	"errors"
	"fmt"

	"clanhall/brackets"
	"clanhall/models"
	"clanhall/repositories"
	"golang.org/x/sync/errgroup"
)

// StandingRow is a standings table row with the player's display
// identity resolved.
type StandingRow struct {
	brackets.Standing
	Nickname string `json:"nickname"`
}

// BracketView is the elimination-bracket projection of a tournament's
// ledger.
type BracketView struct {
	TournamentID int                `json:"tournament_id"`
	BracketType  models.BracketType `json:"bracket_type"`
	Rounds       []brackets.Round   `json:"rounds"`
}

type StandingsService interface {
	GetStandings(ctx context.Context, tournamentID int) ([]StandingRow, error)
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type standingsService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	userRepo        repositories.UserRepository
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
) StandingsService {
	return &standingsService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
	}
}

// GetStandings computes the points table from the current ledger
// snapshot. Roster and ledger are fetched concurrently; the table is
// derived, never stored.
func (s *standingsService) GetStandings(ctx context.Context, tournamentID int) ([]StandingRow, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	var (
		participants []*models.Participant
		matches      []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status := models.ParticipantApproved
		var err error
		participants, err = s.participantRepo.ListByTournament(gctx, tournamentID, &status, false)
		if err != nil {
			return fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	standings := brackets.ComputeStandings(participants, matches)

	userIDs := make([]int, 0, len(standings))
	for _, st := range standings {
		userIDs = append(userIDs, st.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve standings users for tournament %d: %w", tournamentID, err)
	}

	rows := make([]StandingRow, 0, len(standings))
	for _, st := range standings {
		// A participant row can outlive its user account; the standing
		// still renders, just without a name.
		nickname := unknownPlayerName
		if u, ok := users[st.UserID]; ok && u.Nickname != "" {
			nickname = u.Nickname
		}
		rows = append(rows, StandingRow{
			Standing: st,
			Nickname: nickname,
		})
	}
	return rows, nil
}

// GetBracket groups the ledger into rounds for the bracket view.
func (s *standingsService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}

	return &BracketView{
		TournamentID: tournamentID,
		BracketType:  tournament.BracketType,
		Rounds:       brackets.ProjectRounds(matches),
	}, nil
}

func (s *standingsService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}
