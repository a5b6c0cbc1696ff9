package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-registry/internal/domain/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Every pooled connection to :memory: would see its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func setupRepo(t *testing.T) *UserRepoPG {
	return NewUserRepoPG(setupTestDB(t), zaptest.NewLogger(t))
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUserRepoPG_Create(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)
	assert.True(t, user.IsValidID(created.ID))
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, 30, created.Age)
	assert.Equal(t, "ana@x.com", created.Email)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestUserRepoPG_Create_Nil(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepoPG_Create_DuplicateEmail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &user.User{Name: "Other", Age: 20, Email: "ana@x.com"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRepoPG_Create_ConcurrentSameEmail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "race@x.com"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, user.ErrDuplicateEmail)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestUserRepoPG_GetByID_Missing(t *testing.T) {
	repo := setupRepo(t)

	got, err := repo.GetByID(context.Background(), user.NewID())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoPG_GetByEmail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@x.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepoPG_List(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, &user.User{Name: "Bob", Age: 40, Email: "bob@x.com"})
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}

func TestUserRepoPG_Update(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)

	t.Run("partial", func(t *testing.T) {
		updated, err := repo.Update(ctx, created.ID, user.Patch{Age: intPtr(31)})
		require.NoError(t, err)
		assert.Equal(t, 31, updated.Age)
		assert.Equal(t, "Ana", updated.Name)
		assert.Equal(t, "ana@x.com", updated.Email)
	})

	t.Run("zero age is written", func(t *testing.T) {
		updated, err := repo.Update(ctx, created.ID, user.Patch{Age: intPtr(0)})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.Age)
	})

	t.Run("all fields", func(t *testing.T) {
		updated, err := repo.Update(ctx, created.ID, user.Patch{
			Name:  strPtr("Bia"),
			Age:   intPtr(22),
			Email: strPtr("bia@x.com"),
		})
		require.NoError(t, err)
		assert.Equal(t, user.User{ID: created.ID, Name: "Bia", Age: 22, Email: "bia@x.com"}, *updated)
	})

	t.Run("empty patch returns current row", func(t *testing.T) {
		before, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, user.Patch{})
		require.NoError(t, err)
		assert.Equal(t, before, updated)
	})
}

func TestUserRepoPG_Update_NotFound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Update(ctx, user.NewID(), user.Patch{Name: strPtr("Bia")})
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.Update(ctx, user.NewID(), user.Patch{})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserRepoPG_Update_DuplicateEmail(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "dup@x.com"})
	require.NoError(t, err)
	bob, err := repo.Create(ctx, &user.User{Name: "Bob", Age: 40, Email: "bob@x.com"})
	require.NoError(t, err)

	_, err = repo.Update(ctx, bob.ID, user.Patch{Email: strPtr("dup@x.com")})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	unchanged, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", unchanged.Email)
}

func TestUserRepoPG_Delete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), user.ErrNotFound)

	// The email is free again once its owner is gone
	_, err = repo.Create(ctx, &user.User{Name: "Ana", Age: 30, Email: "ana@x.com"})
	assert.NoError(t, err)
}
