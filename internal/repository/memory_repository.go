package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	repoerrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/types"
)

// MemoryRepository is a map-backed Repository. It serves two purposes: the
// degraded mode the application falls back to when the database cannot be
// opened, and deterministic unit tests for everything above the storage
// layer. Data does not survive the process.
type MemoryRepository struct {
	mu           sync.RWMutex
	sessions     map[string]types.FocusSession
	achievements map[string]types.Achievement
	config       *types.SessionConfiguration
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions:     make(map[string]types.FocusSession),
		achievements: make(map[string]types.Achievement),
	}
}

func (r *MemoryRepository) UpsertSession(ctx context.Context, session types.FocusSession) error {
	if session.ID == "" {
		return repoerrors.HandleValidationError("UpsertSession", "id", "", "session id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *MemoryRepository) GetSessionByID(ctx context.Context, id string) (*types.FocusSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repoerrors.HandleNotFound("GetSessionByID", "session", id)
	}
	return &session, nil
}

func (r *MemoryRepository) GetSessionsSince(ctx context.Context, since time.Time) ([]types.FocusSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]types.FocusSession, 0)
	for _, session := range r.sessions {
		if !session.StartedAt.Before(since) {
			result = append(result, session)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

func (r *MemoryRepository) CountCompletedFocusSince(ctx context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, session := range r.sessions {
		if session.Mode == types.ModeFocus && session.Completed && !session.StartedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) DeleteAllSessions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]types.FocusSession)
	return nil
}

func (r *MemoryRepository) SeedAchievements(ctx context.Context, defaults []types.Achievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range defaults {
		if existing, ok := r.achievements[a.ID]; ok {
			existing.Title = a.Title
			existing.Description = a.Description
			existing.Icon = a.Icon
			existing.Target = a.Target
			r.achievements[a.ID] = existing
			continue
		}
		r.achievements[a.ID] = a
	}
	return nil
}

func (r *MemoryRepository) ListAchievements(ctx context.Context) ([]types.Achievement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]types.Achievement, 0, len(r.achievements))
	for _, a := range r.achievements {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *MemoryRepository) UpsertAchievement(ctx context.Context, achievement types.Achievement) error {
	if achievement.ID == "" {
		return repoerrors.HandleValidationError("UpsertAchievement", "id", "", "achievement id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.achievements[achievement.ID] = achievement
	return nil
}

func (r *MemoryRepository) LoadConfiguration(ctx context.Context) (types.SessionConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.config == nil {
		return types.DefaultConfiguration(), nil
	}
	return *r.config, nil
}

func (r *MemoryRepository) SaveConfiguration(ctx context.Context, config types.SessionConfiguration) error {
	if err := validateConfiguration(config); err != nil {
		return err
	}
	config.SchemaVersion = types.ConfigurationSchemaVersion
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = &config
	return nil
}

// WithTransaction runs fn directly; the single mutex already serializes
// access, and callers only rely on write atomicity per call.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(r)
}
