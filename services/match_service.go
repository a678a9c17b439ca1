package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clanhall/brackets"
	"clanhall/metrics"
	"clanhall/models"
	"clanhall/repositories"
	"clanhall/storage"
	"github.com/google/uuid"
)

// matchNumberRetries bounds the retry loop when two operators create
// matches in the same round at the same time.
const matchNumberRetries = 3

type CreateMatchInput struct {
	Round       int        `json:"round"`
	Player1ID   int        `json:"player1_id"`
	Player2ID   *int       `json:"player2_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type RecordResultInput struct {
	WinnerID int     `json:"winner_id"`
	Score    *string `json:"score"`
}

type UpdateMatchInput struct {
	Player1ID   *int       `json:"player1_id"`
	Player2ID   *int       `json:"player2_id"`
	WinnerID    *int       `json:"winner_id"`
	Score       *string    `json:"score"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	ClearWinner bool       `json:"clear_winner"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, tournamentID, currentUserID int, input CreateMatchInput) (*models.Match, error)
	GetByID(ctx context.Context, tournamentID, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	RecordResult(ctx context.Context, tournamentID, matchID, currentUserID int, input RecordResultInput) (*models.Match, error)
	UpdateMatch(ctx context.Context, tournamentID, matchID, currentUserID int, input UpdateMatchInput) (*models.Match, error)
	UploadReplay(ctx context.Context, tournamentID, matchID, currentUserID int, contentType string, file io.Reader) (*models.Match, error)
	DeleteMatch(ctx context.Context, tournamentID, matchID, currentUserID int) error
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	access          TournamentAccess
	uploader        storage.FileUploader
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	access TournamentAccess,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:       matchRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		access:          access,
		uploader:        uploader,
		hub:             hub,
		logger:          logger,
	}
}

// CreateMatch appends a match to the ledger. Players must be approved
// participants; a nil player2 records a bye. The match number is the
// next free slot in the round, claimed under the unique constraint.
func (s *matchService) CreateMatch(ctx context.Context, tournamentID, currentUserID int, input CreateMatchInput) (*models.Match, error) {
	tournament, err := s.authorizeManage(ctx, tournamentID, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Round < 1 {
		return nil, ErrInvalidRound
	}
	if input.Player2ID != nil && *input.Player2ID == input.Player1ID {
		return nil, ErrSamePlayers
	}

	approved, err := s.approvedUserIDs(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !approved[input.Player1ID] {
		return nil, fmt.Errorf("%w: user %d", ErrInvalidPlayer, input.Player1ID)
	}
	if input.Player2ID != nil && !approved[*input.Player2ID] {
		return nil, fmt.Errorf("%w: user %d", ErrInvalidPlayer, *input.Player2ID)
	}

	match := &models.Match{
		TournamentID: tournamentID,
		Round:        input.Round,
		Player1ID:    input.Player1ID,
		Player2ID:    input.Player2ID,
		Status:       models.MatchScheduled,
		ScheduledAt:  input.ScheduledAt,
	}

	for attempt := 0; ; attempt++ {
		maxNumber, maxErr := s.matchRepo.MaxNumberByRound(ctx, tournamentID, input.Round)
		if maxErr != nil {
			return nil, maxErr
		}
		match.MatchNumber = maxNumber + 1

		createErr := s.matchRepo.Create(ctx, match)
		if createErr == nil {
			break
		}
		if errors.Is(createErr, repositories.ErrMatchNumberConflict) && attempt < matchNumberRetries {
			continue
		}
		if errors.Is(createErr, repositories.ErrMatchTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, createErr
	}

	metrics.MatchesCreated.Inc()
	s.logger.InfoContext(ctx, "match created",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", match.ID),
		slog.Int("round", match.Round),
		slog.Int("match_number", match.MatchNumber),
	)
	s.broadcast(tournament.ID, brackets.EventMatchCreated, match)
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, tournamentID, matchID int) (*models.Match, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	match, err := s.getMatch(ctx, tournamentID, matchID)
	if err != nil {
		return nil, err
	}
	populateMatchReplayURL(match, s.uploader)
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, roundFilter, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	for _, m := range matches {
		populateMatchReplayURL(m, s.uploader)
	}
	return matches, nil
}

// RecordResult marks the match completed with the given winner. The
// winner must be one of the match's players; for a bye that means
// player1. Recording over an already completed match overwrites the
// previous result.
func (s *matchService) RecordResult(ctx context.Context, tournamentID, matchID, currentUserID int, input RecordResultInput) (*models.Match, error) {
	tournament, err := s.authorizeManage(ctx, tournamentID, currentUserID)
	if err != nil {
		return nil, err
	}

	match, err := s.getMatch(ctx, tournamentID, matchID)
	if err != nil {
		return nil, err
	}

	if !match.HasPlayer(input.WinnerID) {
		return nil, fmt.Errorf("%w: user %d", ErrInvalidWinner, input.WinnerID)
	}

	winnerID := input.WinnerID
	if err := s.matchRepo.UpdateResult(ctx, matchID, &winnerID, input.Score, nil, models.MatchCompleted); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to record result for match %d: %w", matchID, err)
	}

	match.WinnerID = &winnerID
	match.Score = input.Score
	match.Status = models.MatchCompleted

	metrics.ResultsRecorded.Inc()
	s.logger.InfoContext(ctx, "match result recorded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.Int("winner_id", winnerID),
	)
	populateMatchReplayURL(match, s.uploader)
	s.broadcast(tournament.ID, brackets.EventMatchResult, match)
	return match, nil
}

// UpdateMatch edits an existing row. Changing players re-runs the
// approved-participant check; clearing the winner puts the match back
// to scheduled.
func (s *matchService) UpdateMatch(ctx context.Context, tournamentID, matchID, currentUserID int, input UpdateMatchInput) (*models.Match, error) {
	tournament, err := s.authorizeManage(ctx, tournamentID, currentUserID)
	if err != nil {
		return nil, err
	}

	match, err := s.getMatch(ctx, tournamentID, matchID)
	if err != nil {
		return nil, err
	}

	if input.Player1ID != nil || input.Player2ID != nil {
		approved, approvedErr := s.approvedUserIDs(ctx, tournamentID)
		if approvedErr != nil {
			return nil, approvedErr
		}
		if input.Player1ID != nil {
			if !approved[*input.Player1ID] {
				return nil, fmt.Errorf("%w: user %d", ErrInvalidPlayer, *input.Player1ID)
			}
			match.Player1ID = *input.Player1ID
		}
		if input.Player2ID != nil {
			if *input.Player2ID == 0 {
				match.Player2ID = nil
			} else {
				if !approved[*input.Player2ID] {
					return nil, fmt.Errorf("%w: user %d", ErrInvalidPlayer, *input.Player2ID)
				}
				match.Player2ID = input.Player2ID
			}
		}
		if match.Player2ID != nil && *match.Player2ID == match.Player1ID {
			return nil, ErrSamePlayers
		}
	}

	if input.ScheduledAt != nil {
		match.ScheduledAt = input.ScheduledAt
	}
	if input.Score != nil {
		match.Score = input.Score
	}

	switch {
	case input.ClearWinner:
		match.WinnerID = nil
		match.Status = models.MatchScheduled
	case input.WinnerID != nil:
		if !match.HasPlayer(*input.WinnerID) {
			return nil, fmt.Errorf("%w: user %d", ErrInvalidWinner, *input.WinnerID)
		}
		match.WinnerID = input.WinnerID
		match.Status = models.MatchCompleted
	default:
		// A player edit can orphan a previously recorded winner.
		if match.WinnerID != nil && !match.HasPlayer(*match.WinnerID) {
			match.WinnerID = nil
			match.Status = models.MatchScheduled
		}
	}

	if err := s.matchRepo.Update(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match %d: %w", matchID, err)
	}

	populateMatchReplayURL(match, s.uploader)
	s.broadcast(tournament.ID, brackets.EventMatchUpdated, match)
	return match, nil
}

func (s *matchService) UploadReplay(ctx context.Context, tournamentID, matchID, currentUserID int, contentType string, file io.Reader) (*models.Match, error) {
	tournament, err := s.authorizeManage(ctx, tournamentID, currentUserID)
	if err != nil {
		return nil, err
	}

	match, err := s.getMatch(ctx, tournamentID, matchID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/replays/%d/%s", tournamentID, matchID, uuid.NewString())
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload match replay: %w", err)
	}

	oldKey := match.ReplayKey
	if err := s.matchRepo.UpdateReplayKey(ctx, matchID, &key); err != nil {
		return nil, fmt.Errorf("failed to persist match replay key: %w", err)
	}
	match.ReplayKey = &key

	if oldKey != nil && *oldKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous replay object",
				slog.Int("match_id", matchID), slog.Any("error", delErr))
		}
	}

	populateMatchReplayURL(match, s.uploader)
	s.broadcast(tournament.ID, brackets.EventMatchUpdated, match)
	return match, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, tournamentID, matchID, currentUserID int) error {
	tournament, err := s.authorizeManage(ctx, tournamentID, currentUserID)
	if err != nil {
		return err
	}

	match, err := s.getMatch(ctx, tournamentID, matchID)
	if err != nil {
		return err
	}

	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to delete match %d: %w", matchID, err)
	}

	if match.ReplayKey != nil && *match.ReplayKey != "" && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *match.ReplayKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete replay object",
				slog.Int("match_id", matchID), slog.Any("error", delErr))
		}
	}

	s.logger.InfoContext(ctx, "match deleted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
	)
	s.broadcast(tournament.ID, brackets.EventMatchDeleted, map[string]int{"id": matchID})
	return nil
}

func (s *matchService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *matchService) getMatch(ctx context.Context, tournamentID, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	if match.TournamentID != tournamentID {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

func (s *matchService) authorizeManage(ctx context.Context, tournamentID, currentUserID int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.access.CanManage(ctx, currentUserID, tournament)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}
	return tournament, nil
}

func (s *matchService) approvedUserIDs(ctx context.Context, tournamentID int) (map[int]bool, error) {
	status := models.ParticipantApproved
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, &status, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved participants for tournament %d: %w", tournamentID, err)
	}
	ids := make(map[int]bool, len(participants))
	for _, p := range participants {
		ids[p.UserID] = true
	}
	return ids, nil
}

func (s *matchService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(brackets.RoomID(tournamentID), brackets.Event{
		Type:    eventType,
		Payload: payload,
	})
}
