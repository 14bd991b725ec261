package entitlement_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memSubscriptions is an in-memory subscription store.
type memSubscriptions struct {
	mu            sync.Mutex
	byID          map[uuid.UUID]*models.Subscription
	incrementErr  error
	incrementCall int
}

func newMemSubscriptions(subs ...*models.Subscription) *memSubscriptions {
	m := &memSubscriptions{byID: make(map[uuid.UUID]*models.Subscription)}
	for _, s := range subs {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memSubscriptions) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSubscriptions) IncrementCounter(_ context.Context, id uuid.UUID, counter plans.Counter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementCall++
	if m.incrementErr != nil {
		return m.incrementErr
	}
	s, ok := m.byID[id]
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
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	return nil
}

func (m *memSubscriptions) get(id uuid.UUID) models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

// memSettingsRepo keeps settings rows in a slice, like a table.
type memSettingsRepo struct {
	mu   sync.Mutex
	rows []models.SystemSettings
}

func (r *memSettingsRepo) First(_ context.Context) (*models.SystemSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return nil, repository.ErrNotFound
	}
	cp := r.rows[0]
	return &cp, nil
}

func (r *memSettingsRepo) Save(_ context.Context, row *models.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row.ID == 0 {
		row.ID = uint(len(r.rows) + 1)
		r.rows = append(r.rows, *row)
		return nil
	}
	for i := range r.rows {
		if r.rows[i].ID == row.ID {
			r.rows[i] = *row
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memSettingsRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) First(ctx context.Context) (*models.SystemSettings, error) {
	args := m.Called(ctx)
	row, _ := args.Get(0).(*models.SystemSettings)
	return row, args.Error(1)
}

func (m *mockSettingsRepo) Save(ctx context.Context, row *models.SystemSettings) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func newSubscription(tier plans.PlanTier, usage plans.Usage) *models.Subscription {
	return &models.Subscription{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		Plan:         tier,
		Status:       models.StatusActive,
		ResumeCount:  usage.Resumes,
		AIUsageCount: usage.AI,
		ExportCount:  usage.Exports,
		ImportCount:  usage.Imports,
	}
}

func intPtr(v int) *int { return &v }
