package services

import (
	"context"
	"testing"
	"time"

	"clanhall/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tournamentFixture struct {
	users       *fakeUserRepo
	tournaments *fakeTournamentRepo
	admins      *fakeAdminRepo
	uploader    *fakeUploader
	service     TournamentService
}

func newTournamentFixture(t *testing.T, users ...*models.User) *tournamentFixture {
	t.Helper()
	userRepo := newFakeUserRepo(users...)
	tournamentRepo := newFakeTournamentRepo()
	matchRepo := newFakeMatchRepo()
	adminRepo := newFakeAdminRepo()
	uploader := newFakeUploader()
	access := NewTournamentAccess(userRepo, adminRepo)
	svc := NewTournamentService(tournamentRepo, matchRepo, userRepo, adminRepo, access, uploader, testLogger())
	return &tournamentFixture{
		users:       userRepo,
		tournaments: tournamentRepo,
		admins:      adminRepo,
		uploader:    uploader,
		service:     svc,
	}
}

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Title:       "Spring Clan Cup",
		StartDate:   time.Now().Add(72 * time.Hour),
		BracketType: models.BracketSingleElimination,
	}
}

func TestCreateTournamentStartsInDraft(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newTournamentFixture(t, creator)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, tournament.Status)
	assert.Equal(t, creator.ID, tournament.CreatorID)
	assert.True(t, tournament.IsPublic)
}

func TestCreateTournamentValidation(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newTournamentFixture(t, creator)

	testCases := []struct {
		name    string
		mutate  func(*CreateTournamentInput)
		wantErr error
	}{
		{"missing title", func(in *CreateTournamentInput) { in.Title = "" }, ErrTitleRequired},
		{"missing start date", func(in *CreateTournamentInput) { in.StartDate = time.Time{} }, ErrStartDateRequired},
		{"negative capacity", func(in *CreateTournamentInput) { in.MaxParticipants = -1 }, ErrInvalidCapacity},
		{"unknown bracket type", func(in *CreateTournamentInput) { in.BracketType = "ladder" }, ErrInvalidBracketType},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := f.service.Create(context.Background(), creator.ID, input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestStatusTransitionGraph(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}

	testCases := []struct {
		from    models.TournamentStatus
		to      models.TournamentStatus
		allowed bool
	}{
		{models.StatusDraft, models.StatusOpen, true},
		{models.StatusDraft, models.StatusOngoing, false},
		{models.StatusDraft, models.StatusCompleted, false},
		{models.StatusOpen, models.StatusOngoing, true},
		{models.StatusOpen, models.StatusDraft, true},
		{models.StatusOpen, models.StatusCompleted, false},
		{models.StatusOngoing, models.StatusCompleted, true},
		{models.StatusOngoing, models.StatusOpen, true},
		{models.StatusOngoing, models.StatusDraft, false},
		{models.StatusCompleted, models.StatusOngoing, true},
		{models.StatusCompleted, models.StatusOpen, false},
		{models.StatusCompleted, models.StatusDraft, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			f := newTournamentFixture(t, creator)
			tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
			require.NoError(t, err)
			require.NoError(t, f.tournaments.UpdateStatus(context.Background(), tournament.ID, tc.from))

			updated, err := f.service.UpdateStatus(context.Background(), tournament.ID, creator.ID, tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
			}
		})
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newTournamentFixture(t, creator)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)

	updated, err := f.service.UpdateStatus(context.Background(), tournament.ID, creator.ID, models.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, updated.Status)
}

func TestUpdateStatusAuthorization(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	member := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	globalAdmin := &models.User{ID: 3, Nickname: "overseer", Role: models.RoleAdmin}
	f := newTournamentFixture(t, creator, member, globalAdmin)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), tournament.ID, member.ID, models.StatusOpen)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// A global admin may manage any tournament.
	_, err = f.service.UpdateStatus(context.Background(), tournament.ID, globalAdmin.ID, models.StatusOpen)
	assert.NoError(t, err)
}

func TestAdminGrantExtendsManageRights(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	helper := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	f := newTournamentFixture(t, creator, helper)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), tournament.ID, helper.ID, models.StatusOpen)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.service.AddAdmin(context.Background(), tournament.ID, creator.ID, helper.ID)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), tournament.ID, helper.ID, models.StatusOpen)
	assert.NoError(t, err)
}

func TestGrantManagementRestrictedToCreator(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	helper := &models.User{ID: 2, Nickname: "shadow", Role: models.RoleMember}
	other := &models.User{ID: 3, Nickname: "viper", Role: models.RoleMember}
	f := newTournamentFixture(t, creator, helper, other)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)

	_, err = f.service.AddAdmin(context.Background(), tournament.ID, creator.ID, helper.ID)
	require.NoError(t, err)

	// A granted admin may manage the tournament but not mint more admins.
	_, err = f.service.AddAdmin(context.Background(), tournament.ID, helper.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestUpdateDetailsPartial(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newTournamentFixture(t, creator)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)

	newTitle := "Autumn Clan Cup"
	capacity := 16
	updated, err := f.service.UpdateDetails(context.Background(), tournament.ID, creator.ID, UpdateTournamentDetailsInput{
		Title:           &newTitle,
		MaxParticipants: &capacity,
	})
	require.NoError(t, err)
	assert.Equal(t, "Autumn Clan Cup", updated.Title)
	assert.Equal(t, 16, updated.MaxParticipants)
	// Untouched fields keep their values.
	assert.Equal(t, models.BracketSingleElimination, updated.BracketType)
}

func TestDeleteTournamentCleansUpStoredObjects(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newTournamentFixture(t, creator)

	tournament, err := f.service.Create(context.Background(), creator.ID, validCreateInput())
	require.NoError(t, err)

	key := "tournaments/1/banner/test.png"
	require.NoError(t, f.tournaments.UpdateBannerKey(context.Background(), tournament.ID, &key))

	require.NoError(t, f.service.Delete(context.Background(), tournament.ID, creator.ID))
	assert.Contains(t, f.uploader.deleted, key)

	_, err = f.service.GetByID(context.Background(), tournament.ID, creator.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestGetByIDHidesPrivateFromAnonymous(t *testing.T) {
	creator := &models.User{ID: 1, Nickname: "warlord", Role: models.RoleMember}
	f := newTournamentFixture(t, creator)

	input := validCreateInput()
	private := false
	input.IsPublic = &private
	tournament, err := f.service.Create(context.Background(), creator.ID, input)
	require.NoError(t, err)

	_, err = f.service.GetByID(context.Background(), tournament.ID, 0)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	got, err := f.service.GetByID(context.Background(), tournament.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, got.ID)
}
