package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"clanhall/models"
	"clanhall/repositories"
	"clanhall/storage"
)

// In-memory repository fakes. They mirror the constraint behavior of
// the postgres implementations, unique violations included, so service
// logic can be exercised without a database.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []int) (map[int]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			copied := *u
			out[id] = &copied
		}
	}
	return out, nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
		r.tournaments[t.ID] = t
	}
	return r
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.PublicOnly && !t.IsPublic {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(_ context.Context, id int, bannerKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	nextID       int
	participants map[int]*models.Participant
	users        *fakeUserRepo
}

func newFakeParticipantRepo(users *fakeUserRepo, participants ...*models.Participant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{nextID: 1, participants: make(map[int]*models.Participant), users: users}
	for _, p := range participants {
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.participants[p.ID] = p
	}
	return r
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	copied := *p
	r.participants[p.ID] = &copied
	return nil
}

func (r *fakeParticipantRepo) FindByID(_ context.Context, id int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) FindByUserAndTournament(_ context.Context, userID, tournamentID int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.UserID == userID && p.TournamentID == tournamentID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int, statusFilter *models.ParticipantStatus, includeUser bool) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && p.Status != *statusFilter {
			continue
		}
		copied := *p
		if includeUser && r.users != nil {
			if u, ok := r.users.users[p.UserID]; ok {
				userCopy := *u
				copied.User = &userCopy
			}
		}
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) CountByTournament(_ context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.Status != models.ParticipantRejected {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipantRepo) UpdateStatus(_ context.Context, id int, status models.ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants, id)
	return nil
}

type fakeAdminRepo struct {
	mu     sync.Mutex
	nextID int
	grants map[int]*models.TournamentAdmin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{nextID: 1, grants: make(map[int]*models.TournamentAdmin)}
}

func (r *fakeAdminRepo) Create(_ context.Context, grant *models.TournamentAdmin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.grants {
		if g.TournamentID == grant.TournamentID && g.UserID == grant.UserID {
			return repositories.ErrAdminGrantConflict
		}
	}
	grant.ID = r.nextID
	r.nextID++
	copied := *grant
	r.grants[grant.ID] = &copied
	return nil
}

func (r *fakeAdminRepo) Exists(_ context.Context, tournamentID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.grants {
		if g.TournamentID == tournamentID && g.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAdminRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.TournamentAdmin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.TournamentAdmin, 0)
	for _, g := range r.grants {
		if g.TournamentID == tournamentID {
			copied := *g
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAdminRepo) Delete(_ context.Context, tournamentID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, g := range r.grants {
		if g.TournamentID == tournamentID && g.UserID == userID {
			delete(r.grants, id)
			return nil
		}
	}
	return repositories.ErrAdminGrantNotFound
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match

	// createConflicts makes the next N Create calls fail with a number
	// conflict, simulating a concurrent insert.
	createConflicts int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
	for _, m := range matches {
		if m.ID >= r.nextID {
			r.nextID = m.ID + 1
		}
		r.matches[m.ID] = m
	}
	return r
}

func (r *fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createConflicts > 0 {
		r.createConflicts--
		return repositories.ErrMatchNumberConflict
	}
	for _, existing := range r.matches {
		if existing.TournamentID == m.TournamentID && existing.Round == m.Round && existing.MatchNumber == m.MatchNumber {
			return repositories.ErrMatchNumberConflict
		}
	}
	m.ID = r.nextID
	r.nextID++
	copied := *m
	r.matches[m.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if roundFilter != nil && m.Round != *roundFilter {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out, nil
}

func (r *fakeMatchRepo) MaxNumberByRound(_ context.Context, tournamentID, round int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round == round && m.MatchNumber > max {
			max = m.MatchNumber
		}
	}
	return max, nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, id int, winnerID *int, score *string, replayKey *string, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.WinnerID = winnerID
	m.Score = score
	if replayKey != nil {
		m.ReplayKey = replayKey
	}
	m.Status = status
	return nil
}

func (r *fakeMatchRepo) Update(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	copied := *m
	r.matches[m.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) UpdateReplayKey(_ context.Context, id int, replayKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ReplayKey = replayKey
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
