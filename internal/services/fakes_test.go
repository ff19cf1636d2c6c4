package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/session"
)

// newTxDB returns a gorm handle whose transactions are backed by sqlmock.
// The fakes below ignore the *gorm.DB they receive, so tests only need the
// begin/commit/rollback plumbing to exist.
func newTxDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return gdb, mock
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  []*models.User
	nextID int

	createErr error
	findErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (r *fakeUserRepo) WithTx(tx *gorm.DB) repositories.UserRepository { return r }

func (r *fakeUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", r.nextID)
		r.nextID++
	}
	clone := *user
	r.users = append(r.users, &clone)
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByProviderIdentity(provider models.AuthProvider, providerID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderID == providerID && providerID != "" {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			clone := *user
			r.users[i] = &clone
			return nil
		}
	}
	return repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UsernameExists(username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) List(page, pageSize int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type fakePlanRepo struct {
	plans       map[string]*models.SubscriptionPlan
	freeTier    *models.SubscriptionPlan
	freeTierErr error
	findErr     error
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[string]*models.SubscriptionPlan)}
}

func (r *fakePlanRepo) add(plan *models.SubscriptionPlan) {
	r.plans[plan.ID] = plan
}

func (r *fakePlanRepo) Create(plan *models.SubscriptionPlan) error {
	r.plans[plan.ID] = plan
	return nil
}

func (r *fakePlanRepo) Update(plan *models.SubscriptionPlan) error {
	r.plans[plan.ID] = plan
	return nil
}

func (r *fakePlanRepo) FindByID(id string) (*models.SubscriptionPlan, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if plan, ok := r.plans[id]; ok {
		return plan, nil
	}
	return nil, repositories.ErrPlanNotFound
}

func (r *fakePlanRepo) FindByName(name string) (*models.SubscriptionPlan, error) {
	for _, plan := range r.plans {
		if plan.Name == name {
			return plan, nil
		}
	}
	return nil, repositories.ErrPlanNotFound
}

func (r *fakePlanRepo) ListActive() ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	for _, plan := range r.plans {
		if plan.IsActive {
			out = append(out, *plan)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) FindFreeTier() (*models.SubscriptionPlan, error) {
	if r.freeTierErr != nil {
		return nil, r.freeTierErr
	}
	if r.freeTier != nil {
		return r.freeTier, nil
	}
	return nil, repositories.ErrPlanNotFound
}

type fakeProjectRepo struct {
	counts   map[string]int64
	countErr error

	projects map[string]*models.Project
	members  map[string]*models.ProjectMember
	added    []*models.ProjectMember
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		counts:   make(map[string]int64),
		projects: make(map[string]*models.Project),
		members:  make(map[string]*models.ProjectMember),
	}
}

func (r *fakeProjectRepo) WithTx(tx *gorm.DB) repositories.ProjectRepository { return r }

func (r *fakeProjectRepo) Create(project *models.Project) error {
	if project.ID == "" {
		project.ID = "project-1"
	}
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) FindByID(id string) (*models.Project, error) {
	if p, ok := r.projects[id]; ok {
		return p, nil
	}
	return nil, repositories.ErrProjectNotFound
}

func (r *fakeProjectRepo) ListByUser(userID string) ([]models.Project, error) {
	var out []models.Project
	for _, p := range r.projects {
		if p.OwnerID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(project *models.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) Delete(id string) error {
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) CountByOwnerAndKind(ownerID string, kind models.ProjectKind) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.counts[ownerID+"/"+string(kind)], nil
}

func (r *fakeProjectRepo) AddMember(member *models.ProjectMember) error {
	r.members[member.ProjectID+"/"+member.UserID] = member
	r.added = append(r.added, member)
	return nil
}

func (r *fakeProjectRepo) FindMember(projectID, userID string) (*models.ProjectMember, error) {
	if m, ok := r.members[projectID+"/"+userID]; ok {
		return m, nil
	}
	return nil, nil
}

func (r *fakeProjectRepo) CreateEntry(entry *models.PhaseEntry) error          { return nil }
func (r *fakeProjectRepo) FindEntry(id string) (*models.PhaseEntry, error)     { return nil, repositories.ErrProjectNotFound }
func (r *fakeProjectRepo) UpdateEntry(entry *models.PhaseEntry) error          { return nil }
func (r *fakeProjectRepo) ListEntries(projectID string, phase models.JourneyPhase) ([]models.PhaseEntry, error) {
	return nil, nil
}

type fakeInviteRepo struct {
	invites map[string]*models.ProjectInvite
	nextID  int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]*models.ProjectInvite), nextID: 1}
}

func (r *fakeInviteRepo) WithTx(tx *gorm.DB) repositories.InviteRepository { return r }

func (r *fakeInviteRepo) Create(invite *models.ProjectInvite) error {
	if invite.ID == "" {
		invite.ID = fmt.Sprintf("invite-%d", r.nextID)
		r.nextID++
	}
	clone := *invite
	r.invites[invite.ID] = &clone
	return nil
}

func (r *fakeInviteRepo) FindByID(id string) (*models.ProjectInvite, error) {
	if inv, ok := r.invites[id]; ok {
		clone := *inv
		return &clone, nil
	}
	return nil, repositories.ErrInviteNotFound
}

func (r *fakeInviteRepo) ListByProject(projectID string) ([]models.ProjectInvite, error) {
	var out []models.ProjectInvite
	for _, inv := range r.invites {
		if inv.ProjectID == projectID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) Update(invite *models.ProjectInvite) error {
	clone := *invite
	r.invites[invite.ID] = &clone
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

// recordingStore wraps the in-memory session store to observe activity in
// service tests.
type recordingStore struct {
	session.Store
	created []string
}

func newRecordingStore(inner session.Store) *recordingStore {
	return &recordingStore{Store: inner}
}

func (s *recordingStore) Create(user *models.User) (string, error) {
	token, err := s.Store.Create(user)
	if err == nil {
		s.created = append(s.created, user.ID)
	}
	return token, err
}
