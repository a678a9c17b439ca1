package services

import (
	"context"
	"errors"
	"fmt"

	"clanhall/models"
	"clanhall/repositories"
)

// TournamentAccess answers "may this user manage that tournament".
// The capability is a disjunction of three independent checks: global
// admin role, tournament creator, explicit admin grant.
type TournamentAccess interface {
	CanManage(ctx context.Context, userID int, tournament *models.Tournament) (bool, error)
}

type tournamentAccess struct {
	userRepo  repositories.UserRepository
	adminRepo repositories.TournamentAdminRepository
}

func NewTournamentAccess(
	userRepo repositories.UserRepository,
	adminRepo repositories.TournamentAdminRepository,
) TournamentAccess {
	return &tournamentAccess{
		userRepo:  userRepo,
		adminRepo: adminRepo,
	}
}

func (a *tournamentAccess) CanManage(ctx context.Context, userID int, tournament *models.Tournament) (bool, error) {
	if tournament == nil || userID <= 0 {
		return false, nil
	}

	if tournament.CreatorID == userID {
		return true, nil
	}

	user, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve user %d for access check: %w", userID, err)
	}
	if user.Role == models.RoleAdmin {
		return true, nil
	}

	granted, err := a.adminRepo.Exists(ctx, tournament.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin grant for user %d on tournament %d: %w", userID, tournament.ID, err)
	}
	return granted, nil
}
