package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clanhall/models"
	"clanhall/repositories"
	"clanhall/storage"
	"github.com/google/uuid"
)

type CreateTournamentInput struct {
	Title           string             `json:"title"`
	Description     *string            `json:"description"`
	StartDate       time.Time          `json:"start_date"`
	IsPublic        *bool              `json:"is_public"`
	MaxParticipants int                `json:"max_participants"`
	BracketType     models.BracketType `json:"bracket_type"`
	Sponsors        []string           `json:"sponsors"`
	Prizes          []string           `json:"prizes"`
}

type UpdateTournamentDetailsInput struct {
	Title           *string             `json:"title"`
	Description     *string             `json:"description"`
	StartDate       *time.Time          `json:"start_date"`
	IsPublic        *bool               `json:"is_public"`
	MaxParticipants *int                `json:"max_participants"`
	BracketType     *models.BracketType `json:"bracket_type"`
	Sponsors        []string            `json:"sponsors"`
	Prizes          []string            `json:"prizes"`
}

type TournamentService interface {
	Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int, currentUserID int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateDetails(ctx context.Context, id, currentUserID int, input UpdateTournamentDetailsInput) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, id, currentUserID int, status models.TournamentStatus) (*models.Tournament, error)
	Delete(ctx context.Context, id, currentUserID int) error
	UploadBanner(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.Tournament, error)
	AddAdmin(ctx context.Context, tournamentID, currentUserID, userID int) (*models.TournamentAdmin, error)
	RemoveAdmin(ctx context.Context, tournamentID, currentUserID, userID int) error
	ListAdmins(ctx context.Context, tournamentID int) ([]*models.TournamentAdmin, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	userRepo       repositories.UserRepository
	adminRepo      repositories.TournamentAdminRepository
	access         TournamentAccess
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	adminRepo repositories.TournamentAdminRepository,
	access TournamentAccess,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		userRepo:       userRepo,
		adminRepo:      adminRepo,
		access:         access,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, creatorID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.StartDate.IsZero() {
		return nil, ErrStartDateRequired
	}
	if input.MaxParticipants < 0 {
		return nil, ErrInvalidCapacity
	}
	if !models.ValidBracketType(input.BracketType) {
		return nil, ErrInvalidBracketType
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	tournament := &models.Tournament{
		Title:           input.Title,
		Description:     input.Description,
		StartDate:       input.StartDate,
		IsPublic:        isPublic,
		MaxParticipants: input.MaxParticipants,
		BracketType:     input.BracketType,
		Status:          models.StatusDraft,
		Sponsors:        input.Sponsors,
		Prizes:          input.Prizes,
		CreatorID:       creatorID,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentCreatorInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("creator_id", creatorID),
	)
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int, currentUserID int) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	// Private tournaments stay invisible to anonymous viewers.
	if !tournament.IsPublic && currentUserID <= 0 {
		return nil, ErrTournamentNotFound
	}

	populateTournamentBannerURL(tournament, s.uploader)

	if creator, err := s.userRepo.GetByID(ctx, tournament.CreatorID); err == nil {
		populateUserAvatarURL(creator, s.uploader)
		tournament.Creator = creator
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		s.logger.WarnContext(ctx, "failed to populate tournament creator",
			slog.Int("tournament_id", id), slog.Any("error", err))
	}

	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		populateTournamentBannerURL(&tournaments[i], s.uploader)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateDetails(ctx context.Context, id, currentUserID int, input UpdateTournamentDetailsInput) (*models.Tournament, error) {
	tournament, err := s.authorizeManage(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTitleRequired
		}
		tournament.Title = *input.Title
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.StartDate != nil {
		if input.StartDate.IsZero() {
			return nil, ErrStartDateRequired
		}
		tournament.StartDate = *input.StartDate
	}
	if input.IsPublic != nil {
		tournament.IsPublic = *input.IsPublic
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 0 {
			return nil, ErrInvalidCapacity
		}
		tournament.MaxParticipants = *input.MaxParticipants
	}
	if input.BracketType != nil {
		if !models.ValidBracketType(*input.BracketType) {
			return nil, ErrInvalidBracketType
		}
		tournament.BracketType = *input.BracketType
	}
	if input.Sponsors != nil {
		tournament.Sponsors = input.Sponsors
	}
	if input.Prizes != nil {
		tournament.Prizes = input.Prizes
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

// UpdateStatus moves the tournament along the forward-biased lifecycle
// graph; reopen edges are the only way back.
func (s *tournamentService) UpdateStatus(ctx context.Context, id, currentUserID int, status models.TournamentStatus) (*models.Tournament, error) {
	if !models.ValidTournamentStatus(status) {
		return nil, ErrInvalidStatus
	}

	tournament, err := s.authorizeManage(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}

	if tournament.Status == status {
		return tournament, nil
	}
	if !isValidStatusTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, tournament.Status, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}

	s.logger.InfoContext(ctx, "tournament status changed",
		slog.Int("tournament_id", id),
		slog.String("from", string(tournament.Status)),
		slog.String("to", string(status)),
	)
	tournament.Status = status
	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

// Delete removes the tournament and everything it owns. Participants,
// grants and matches go via DB cascade; stored objects are cleaned up
// best-effort before the row disappears.
func (s *tournamentService) Delete(ctx context.Context, id, currentUserID int) error {
	tournament, err := s.authorizeManage(ctx, id, currentUserID)
	if err != nil {
		return err
	}

	if s.uploader != nil {
		matches, listErr := s.matchRepo.ListByTournament(ctx, id, nil, nil)
		if listErr != nil {
			s.logger.WarnContext(ctx, "failed to list matches for replay cleanup",
				slog.Int("tournament_id", id), slog.Any("error", listErr))
		}
		for _, m := range matches {
			if m.ReplayKey == nil || *m.ReplayKey == "" {
				continue
			}
			if delErr := s.uploader.Delete(ctx, *m.ReplayKey); delErr != nil {
				s.logger.WarnContext(ctx, "failed to delete match replay object",
					slog.Int("match_id", m.ID), slog.Any("error", delErr))
			}
		}
		if tournament.BannerKey != nil && *tournament.BannerKey != "" {
			if delErr := s.uploader.Delete(ctx, *tournament.BannerKey); delErr != nil {
				s.logger.WarnContext(ctx, "failed to delete tournament banner object",
					slog.Int("tournament_id", id), slog.Any("error", delErr))
			}
		}
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "tournament deleted", slog.Int("tournament_id", id))
	return nil
}

func (s *tournamentService) UploadBanner(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.authorizeManage(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	key := fmt.Sprintf("tournaments/%d/banner/%s%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload tournament banner: %w", err)
	}

	oldKey := tournament.BannerKey
	if err := s.tournamentRepo.UpdateBannerKey(ctx, id, &key); err != nil {
		return nil, fmt.Errorf("failed to persist tournament banner key: %w", err)
	}
	tournament.BannerKey = &key

	if oldKey != nil && *oldKey != "" {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous banner object",
				slog.Int("tournament_id", id), slog.Any("error", delErr))
		}
	}

	populateTournamentBannerURL(tournament, s.uploader)
	return tournament, nil
}

// Admin grants are managed by the creator or a global admin only; a
// granted tournament admin cannot mint further admins.
func (s *tournamentService) AddAdmin(ctx context.Context, tournamentID, currentUserID, userID int) (*models.TournamentAdmin, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeGrantManagement(ctx, currentUserID, tournament); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}

	grant := &models.TournamentAdmin{TournamentID: tournamentID, UserID: userID}
	if err := s.adminRepo.Create(ctx, grant); err != nil {
		if errors.Is(err, repositories.ErrAdminGrantConflict) {
			return nil, repositories.ErrAdminGrantConflict
		}
		return nil, fmt.Errorf("failed to create admin grant: %w", err)
	}
	return grant, nil
}

func (s *tournamentService) RemoveAdmin(ctx context.Context, tournamentID, currentUserID, userID int) error {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if err := s.authorizeGrantManagement(ctx, currentUserID, tournament); err != nil {
		return err
	}

	if err := s.adminRepo.Delete(ctx, tournamentID, userID); err != nil {
		if errors.Is(err, repositories.ErrAdminGrantNotFound) {
			return repositories.ErrAdminGrantNotFound
		}
		return fmt.Errorf("failed to delete admin grant: %w", err)
	}
	return nil
}

func (s *tournamentService) ListAdmins(ctx context.Context, tournamentID int) ([]*models.TournamentAdmin, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	grants, err := s.adminRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins for tournament %d: %w", tournamentID, err)
	}
	for _, g := range grants {
		populateUserAvatarURL(g.User, s.uploader)
	}
	return grants, nil
}

func (s *tournamentService) getTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) authorizeManage(ctx context.Context, tournamentID, currentUserID int) (*models.Tournament, error) {
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

func (s *tournamentService) authorizeGrantManagement(ctx context.Context, currentUserID int, tournament *models.Tournament) error {
	if tournament.CreatorID == currentUserID {
		return nil
	}
	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrNotAuthorized
		}
		return fmt.Errorf("failed to resolve user %d: %w", currentUserID, err)
	}
	if user.Role != models.RoleAdmin {
		return ErrNotAuthorized
	}
	return nil
}
