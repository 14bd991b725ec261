package services_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memSubscriptions mimics the subscription table, including the queries the
// lifecycle relies on.
type memSubscriptions struct {
	mu            sync.Mutex
	rows          map[uuid.UUID]*models.Subscription
	emails        map[uuid.UUID]string
	failDowngrade map[uuid.UUID]error
	findErr       error
	downgradeOK   []uuid.UUID
	lastLimit     int
	lastOffset    int

	// afterFind runs once FindByUserID has returned its snapshot, standing
	// in for writes from other requests.
	afterFind func()
	// beforeDowngrade runs between the expiry query and the update.
	beforeDowngrade func(*models.Subscription)
}

func newMemSubscriptions() *memSubscriptions {
	return &memSubscriptions{
		rows:          make(map[uuid.UUID]*models.Subscription),
		emails:        make(map[uuid.UUID]string),
		failDowngrade: make(map[uuid.UUID]error),
	}
}

func (m *memSubscriptions) add(tier plans.PlanTier, end *time.Time, usage plans.Usage) *models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &models.Subscription{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		Plan:         tier,
		Status:       models.StatusActive,
		StartDate:    time.Now().AddDate(0, -1, 0),
		EndDate:      end,
		ResumeCount:  usage.Resumes,
		AIUsageCount: usage.AI,
		ExportCount:  usage.Exports,
		ImportCount:  usage.Imports,
	}
	m.rows[sub.ID] = sub
	m.emails[sub.UserID] = sub.UserID.String()[:8] + "@example.com"
	return sub
}

func (m *memSubscriptions) get(id uuid.UUID) *models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.rows[id]
	return &cp
}

func (m *memSubscriptions) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := m.findByUserID(userID)
	if err == nil && m.afterFind != nil {
		m.afterFind()
	}
	return sub, err
}

func (m *memSubscriptions) findByUserID(userID uuid.UUID) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSubscriptions) UpdatePlan(_ context.Context, id uuid.UUID, plan plans.PlanTier, start time.Time, end *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Plan, s.Status, s.StartDate, s.EndDate = plan, models.StatusActive, start, end
	return nil
}

func (m *memSubscriptions) IncrementCounter(_ context.Context, id uuid.UUID, counter plans.Counter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch counter {
	case plans.CounterResumes:
		s.ResumeCount++
	case plans.CounterAI:
		s.AIUsageCount++
	case plans.CounterExports:
		s.ExportCount++
	case plans.CounterImports:
		s.ImportCount++
	}
	return nil
}

func (m *memSubscriptions) ResetCounters(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.UserID == userID {
			s.ResumeCount, s.AIUsageCount, s.ExportCount, s.ImportCount = 0, 0, 0, 0
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memSubscriptions) query(match func(*models.Subscription) bool) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []models.Subscription
	for _, s := range m.rows {
		if s.Status == models.StatusActive && s.Plan.Paid() && s.EndDate != nil && match(s) {
			cp := *s
			cp.User = models.User{ID: s.UserID, Email: m.emails[s.UserID]}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(*out[j].EndDate) })
	return out, nil
}

func (m *memSubscriptions) FindExpired(_ context.Context, now time.Time) ([]models.Subscription, error) {
	return m.query(func(s *models.Subscription) bool { return !s.EndDate.After(now) })
}

func (m *memSubscriptions) FindExpiringBetween(_ context.Context, from, to time.Time) ([]models.Subscription, error) {
	return m.query(func(s *models.Subscription) bool { return s.EndDate.After(from) && !s.EndDate.After(to) })
}

func (m *memSubscriptions) Downgrade(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDowngrade[id]; err != nil {
		return false, err
	}
	s, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	if m.beforeDowngrade != nil {
		m.beforeDowngrade(s)
	}
	if !s.Expired(now) {
		return false, nil
	}
	s.Plan = plans.Free
	s.Status = models.StatusActive
	s.EndDate = nil
	m.downgradeOK = append(m.downgradeOK, id)
	return true, nil
}

func (m *memSubscriptions) CountByPlan(_ context.Context) (map[plans.PlanTier]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[plans.PlanTier]int64{plans.Free: 0, plans.Basic: 0, plans.Pro: 0}
	for _, s := range m.rows {
		counts[s.Plan.Normalize()]++
	}
	return counts, nil
}

func (m *memSubscriptions) List(_ context.Context, limit, offset int) ([]models.Subscription, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit, m.lastOffset = limit, offset
	var out []models.Subscription
	for _, s := range m.rows {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

type memSettingsRepo struct {
	row *models.SystemSettings
}

func (r *memSettingsRepo) First(context.Context) (*models.SystemSettings, error) {
	if r.row == nil {
		return nil, repository.ErrNotFound
	}
	cp := *r.row
	return &cp, nil
}

func (r *memSettingsRepo) Save(_ context.Context, row *models.SystemSettings) error {
	if row.ID == 0 {
		row.ID = 1
	}
	cp := *row
	r.row = &cp
	return nil
}

func newTestMeter(subs *memSubscriptions) *entitlement.Meter {
	store := entitlement.NewSettingsStore(&memSettingsRepo{})
	return entitlement.NewMeter(entitlement.NewResolver(subs, store), entitlement.NewRecorder(subs))
}

type memUsers struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.User
	createErr error
	updates   int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByExternalID(_ context.Context, externalID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) CreateWithSubscription(_ context.Context, user *models.User, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	sub.UserID = user.ID
	user.Subscription = sub
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) DeleteByExternalID(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.byID {
		if u.ExternalID == externalID {
			delete(m.byID, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memResumes struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Resume
}

func newMemResumes() *memResumes {
	return &memResumes{rows: make(map[uuid.UUID]*models.Resume)}
}

func (m *memResumes) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Resume
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memResumes) FindByID(_ context.Context, userID, id uuid.UUID) (*models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memResumes) Create(_ context.Context, r *models.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memResumes) Update(_ context.Context, r *models.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memResumes) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memResumes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

type stubRenderer struct {
	calls int
	err   error
}

func (r *stubRenderer) Render(_ context.Context, resume *models.Resume, watermark bool) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.7 " + resume.Title), nil
}

type stubPhotos struct {
	uploaded []string
	deleted  []string
	err      error
}

func (p *stubPhotos) Upload(_ context.Context, file io.Reader, publicID string) (*services.StoredPhoto, error) {
	if p.err != nil {
		return nil, p.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	p.uploaded = append(p.uploaded, publicID)
	return &services.StoredPhoto{
		URL:      "https://res.cloudinary.com/demo/image/upload/v1/resumes/" + publicID + ".jpg",
		PublicID: "resumes/" + publicID,
	}, nil
}

func (p *stubPhotos) Delete(_ context.Context, publicID string) error {
	if p.err != nil {
		return p.err
	}
	p.deleted = append(p.deleted, publicID)
	return nil
}

var errBoom = errors.New("boom")

func timePtr(t time.Time) *time.Time { return &t }
