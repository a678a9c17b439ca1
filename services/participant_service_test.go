package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"clanhall/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type participantFixture struct {
	users        *fakeUserRepo
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	service      ParticipantService
}

func newParticipantFixture(t *testing.T, tournament *models.Tournament, users ...*models.User) *participantFixture {
	t.Helper()
	userRepo := newFakeUserRepo(users...)
	tournamentRepo := newFakeTournamentRepo(tournament)
	participantRepo := newFakeParticipantRepo(userRepo)
	adminRepo := newFakeAdminRepo()
	access := NewTournamentAccess(userRepo, adminRepo)
	svc := NewParticipantService(participantRepo, tournamentRepo, userRepo, access, newFakeUploader(), testLogger())
	return &participantFixture{
		users:        userRepo,
		tournaments:  tournamentRepo,
		participants: participantRepo,
		service:      svc,
	}
}

func openTournament(id, creatorID int) *models.Tournament {
	return &models.Tournament{
		ID:              id,
		Title:           "Spring Clan Cup",
		StartDate:       time.Now().Add(48 * time.Hour),
		IsPublic:        true,
		MaxParticipants: 0,
		BracketType:     models.BracketSingleElimination,
		Status:          models.StatusOpen,
		CreatorID:       creatorID,
	}
}

func TestRegisterCreatesPendingApplication(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, player)

	p, err := f.service.Register(context.Background(), 10, player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantPending, p.Status)
	assert.Equal(t, player.ID, p.UserID)
	assert.Equal(t, 10, p.TournamentID)
}

func TestRegisterRequiresOpenStatus(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}

	for _, status := range []models.TournamentStatus{models.StatusDraft, models.StatusOngoing, models.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			tournament := openTournament(10, creator.ID)
			tournament.Status = status
			f := newParticipantFixture(t, tournament, creator, player)

			_, err := f.service.Register(context.Background(), 10, player.ID)
			assert.ErrorIs(t, err, ErrRegistrationClosed)
		})
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, player)

	_, err := f.service.Register(context.Background(), 10, player.ID)
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), 10, player.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	first := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	second := &models.User{ID: 3, Nickname: "viper", Role: models.RoleMember}

	tournament := openTournament(10, creator.ID)
	tournament.MaxParticipants = 1
	f := newParticipantFixture(t, tournament, creator, first, second)

	_, err := f.service.Register(context.Background(), 10, first.ID)
	require.NoError(t, err)

	// A pending application already holds the only slot.
	_, err = f.service.Register(context.Background(), 10, second.ID)
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestRejectedApplicationFreesSlot(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleAdmin}
	first := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	second := &models.User{ID: 3, Nickname: "viper", Role: models.RoleMember}

	tournament := openTournament(10, creator.ID)
	tournament.MaxParticipants = 1
	f := newParticipantFixture(t, tournament, creator, first, second)

	p, err := f.service.Register(context.Background(), 10, first.ID)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), 10, p.ID, creator.ID, models.ParticipantRejected)
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), 10, second.ID)
	assert.NoError(t, err)
}

func TestRegisterPrivateTournamentClosed(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}

	tournament := openTournament(10, creator.ID)
	tournament.IsPublic = false
	f := newParticipantFixture(t, tournament, creator, player)

	_, err := f.service.Register(context.Background(), 10, player.ID)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestAddDirectRequiresManageRights(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	stranger := &models.User{ID: 5, Nickname: "lurker", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, stranger, player)

	_, err := f.service.AddDirect(context.Background(), 10, stranger.ID, player.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAddDirectApprovesImmediately(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}

	// Direct adds work even in draft, before registration opens.
	tournament := openTournament(10, creator.ID)
	tournament.Status = models.StatusDraft
	f := newParticipantFixture(t, tournament, creator, player)

	p, err := f.service.AddDirect(context.Background(), 10, creator.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantApproved, p.Status)
}

func TestAddDirectUnknownUser(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator)

	_, err := f.service.AddDirect(context.Background(), 10, creator.ID, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateStatusValidation(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, player)

	p, err := f.service.Register(context.Background(), 10, player.ID)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), 10, p.ID, creator.ID, models.ParticipantStatus("banned"))
	assert.ErrorIs(t, err, ErrInvalidParticipantStatus)

	updated, err := f.service.UpdateStatus(context.Background(), 10, p.ID, creator.ID, models.ParticipantApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantApproved, updated.Status)
}

func TestRemoveOwnRegistrationAllowed(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, player)

	p, err := f.service.Register(context.Background(), 10, player.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Remove(context.Background(), 10, p.ID, player.ID))

	_, err = f.service.ListByTournament(context.Background(), 10, nil)
	require.NoError(t, err)
}

func TestRemoveForeignRegistrationDenied(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	stranger := &models.User{ID: 3, Nickname: "lurker", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, player, stranger)

	p, err := f.service.Register(context.Background(), 10, player.ID)
	require.NoError(t, err)

	err = f.service.Remove(context.Background(), 10, p.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestWithdrawWithoutRegistration(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	player := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, player)

	err := f.service.Withdraw(context.Background(), 10, player.ID)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	first := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	second := &models.User{ID: 3, Nickname: "viper", Role: models.RoleMember}
	f := newParticipantFixture(t, openTournament(10, creator.ID), creator, first, second)

	p1, err := f.service.Register(context.Background(), 10, first.ID)
	require.NoError(t, err)
	_, err = f.service.Register(context.Background(), 10, second.ID)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), 10, p1.ID, creator.ID, models.ParticipantApproved)
	require.NoError(t, err)

	approved := models.ParticipantApproved
	list, err := f.service.ListByTournament(context.Background(), 10, &approved)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].UserID)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "shadow", list[0].User.Nickname)
}
