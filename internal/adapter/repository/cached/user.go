package cached

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-registry/internal/adapter/cache"
	domain "user-registry/internal/domain/user"
	"user-registry/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with caching support.
// It wraps a persistent repository (DB) and a cache implementation.
//
// Every write bumps epoch while holding mu. A miss only populates the cache
// when no write happened between its DB read and its cache write, so a read
// racing an update cannot reinstate the old row.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group

	mu    sync.Mutex
	epoch uint64
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) user.Repository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// List delegates to the DB repository.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.List(ctx)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
// Absent users are not cached.
func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	cachedUser, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.String("id", id), zap.Error(err))
	} else if cachedUser != nil {
		return cachedUser, nil
	}

	// Single-flight prevents a stampede on the same key
	result, err, _ := r.group.Do(id, func() (any, error) {
		seen := r.currentEpoch()

		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil || u == nil {
			return u, err
		}

		r.fill(ctx, u, seen)
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u, _ := result.(*domain.User)
	return u, nil
}

// GetByEmail delegates to the DB repository so uniqueness checks never see stale data.
func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// Create delegates to the DB repository.
func (r *CachedUserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.dbRepo.Create(ctx, u)
}

// Update updates the user in DB and invalidates the cache.
func (r *CachedUserRepository) Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error) {
	u, err := r.dbRepo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, id, "update")
	return u, nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, id, "delete")
	return nil
}

func (r *CachedUserRepository) currentEpoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch
}

// fill caches u unless a write has happened since seen was read.
func (r *CachedUserRepository) fill(ctx context.Context, u *domain.User, seen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.epoch != seen {
		r.log.Debug("skipping cache fill after concurrent write", zap.String("id", u.ID))
		return
	}
	if err := r.cache.Set(ctx, u); err != nil {
		r.log.Warn("failed to cache user", zap.String("id", u.ID), zap.Error(err))
	}
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.epoch++
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.String("id", id), zap.String("op", op), zap.Error(err))
	}
}
