package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clanhall/metrics"
	"clanhall/models"
	"clanhall/repositories"
	"clanhall/storage"
)

type ParticipantService interface {
	Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	AddDirect(ctx context.Context, tournamentID, currentUserID, userID int) (*models.Participant, error)
	UpdateStatus(ctx context.Context, tournamentID, participantID, currentUserID int, status models.ParticipantStatus) (*models.Participant, error)
	Remove(ctx context.Context, tournamentID, participantID, currentUserID int) error
	Withdraw(ctx context.Context, tournamentID, currentUserID int) error
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error)
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
	access          TournamentAccess
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	access TournamentAccess,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
		access:          access,
		uploader:        uploader,
		logger:          logger,
	}
}

// Register files a self-service registration. The row lands in pending
// and counts toward capacity immediately, so an organizer rejecting it
// later frees the slot.
func (s *participantService) Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if tournament.Status != models.StatusOpen {
		return nil, ErrRegistrationClosed
	}
	if !tournament.IsPublic {
		// Private tournaments take participants only via the organizer.
		return nil, ErrRegistrationClosed
	}

	if err := s.ensureCapacity(ctx, tournament); err != nil {
		return nil, err
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		Status:       models.ParticipantPending,
	}
	if err := s.createParticipant(ctx, participant); err != nil {
		return nil, err
	}

	metrics.Registrations.Inc()
	s.logger.InfoContext(ctx, "participant registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID),
	)
	return participant, nil
}

// AddDirect lets an organizer seed the roster. The entry is approved
// right away and skips the open-status gate, but not the capacity gate.
func (s *participantService) AddDirect(ctx context.Context, tournamentID, currentUserID, userID int) (*models.Participant, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, currentUserID, tournament); err != nil {
		return nil, err
	}

	if tournament.Status == models.StatusCompleted {
		return nil, ErrRegistrationClosed
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}

	if err := s.ensureCapacity(ctx, tournament); err != nil {
		return nil, err
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		Status:       models.ParticipantApproved,
	}
	if err := s.createParticipant(ctx, participant); err != nil {
		return nil, err
	}

	metrics.Registrations.Inc()
	s.logger.InfoContext(ctx, "participant added by organizer",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID),
		slog.Int("added_by", currentUserID),
	)
	return participant, nil
}

func (s *participantService) UpdateStatus(ctx context.Context, tournamentID, participantID, currentUserID int, status models.ParticipantStatus) (*models.Participant, error) {
	if !models.ValidParticipantStatus(status) {
		return nil, ErrInvalidParticipantStatus
	}

	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, currentUserID, tournament); err != nil {
		return nil, err
	}

	participant, err := s.getParticipant(ctx, tournamentID, participantID)
	if err != nil {
		return nil, err
	}

	if participant.Status == status {
		return participant, nil
	}

	if err := s.participantRepo.UpdateStatus(ctx, participantID, status); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to update participant %d status: %w", participantID, err)
	}

	s.logger.InfoContext(ctx, "participant status changed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participantID),
		slog.String("from", string(participant.Status)),
		slog.String("to", string(status)),
	)
	participant.Status = status
	return participant, nil
}

func (s *participantService) Remove(ctx context.Context, tournamentID, participantID, currentUserID int) error {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	participant, err := s.getParticipant(ctx, tournamentID, participantID)
	if err != nil {
		return err
	}

	// A user may pull their own registration; anyone else needs manage
	// rights on the tournament.
	if participant.UserID != currentUserID {
		if err := s.authorizeManage(ctx, currentUserID, tournament); err != nil {
			return err
		}
	}

	if err := s.participantRepo.Delete(ctx, participantID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to delete participant %d: %w", participantID, err)
	}

	s.logger.InfoContext(ctx, "participant removed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participantID),
		slog.Int("removed_by", currentUserID),
	)
	return nil
}

func (s *participantService) Withdraw(ctx context.Context, tournamentID, currentUserID int) error {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return err
	}

	participant, err := s.participantRepo.FindByUserAndTournament(ctx, currentUserID, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to find registration for user %d: %w", currentUserID, err)
	}

	if err := s.participantRepo.Delete(ctx, participant.ID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to delete participant %d: %w", participant.ID, err)
	}

	s.logger.InfoContext(ctx, "participant withdrew",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", currentUserID),
	)
	return nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error) {
	if statusFilter != nil && !models.ValidParticipantStatus(*statusFilter) {
		return nil, ErrInvalidParticipantStatus
	}
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID, statusFilter, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	for _, p := range participants {
		populateUserAvatarURL(p.User, s.uploader)
	}
	return participants, nil
}

func (s *participantService) getTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}

func (s *participantService) getParticipant(ctx context.Context, tournamentID, participantID int) (*models.Participant, error) {
	participant, err := s.participantRepo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant %d: %w", participantID, err)
	}
	if participant.TournamentID != tournamentID {
		return nil, ErrParticipantNotFound
	}
	return participant, nil
}

func (s *participantService) authorizeManage(ctx context.Context, currentUserID int, tournament *models.Tournament) error {
	allowed, err := s.access.CanManage(ctx, currentUserID, tournament)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotAuthorized
	}
	return nil
}

// ensureCapacity counts pending and approved rows against the limit.
// Zero means unlimited. The check races with concurrent registrations;
// the unique constraint keeps duplicates out, capacity may overshoot by
// the width of the race, which is acceptable.
func (s *participantService) ensureCapacity(ctx context.Context, tournament *models.Tournament) error {
	if tournament.MaxParticipants <= 0 {
		return nil
	}
	count, err := s.participantRepo.CountByTournament(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to count participants for tournament %d: %w", tournament.ID, err)
	}
	if count >= tournament.MaxParticipants {
		return ErrTournamentFull
	}
	return nil
}

func (s *participantService) createParticipant(ctx context.Context, participant *models.Participant) error {
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantConflict):
			return ErrAlreadyRegistered
		case errors.Is(err, repositories.ErrParticipantUserInvalid):
			return ErrUserNotFound
		case errors.Is(err, repositories.ErrParticipantTournamentInvalid):
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}
