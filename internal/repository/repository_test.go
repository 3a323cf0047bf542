package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wellness-tracker/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestCategoryRepository_SeedKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t))

	require.NoError(t, repo.Seed(ctx, model.DefaultCategories()))
	require.NoError(t, repo.UpdateAchieved(ctx, "Mental Habits", 1))
	require.NoError(t, repo.Seed(ctx, model.DefaultCategories()))

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 5)
	assert.Equal(t, "Get a Dental Exam", categories[0].Name)
	assert.Equal(t, "Mental Habits", categories[4].Name)
	assert.Equal(t, 1, categories[4].Achieved)
}

func TestCategoryRepository_FindByName(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t))
	require.NoError(t, repo.Seed(ctx, model.DefaultCategories()))

	found, err := repo.FindByName(ctx, "Get a Dental Exam")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Goal)
	assert.Equal(t, 1, found.Achieved)

	missing, err := repo.FindByName(ctx, "Run a Marathon")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := repo.FindByName(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestCategoryRepository_UpdateAchievedUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t))
	require.NoError(t, repo.Seed(ctx, model.DefaultCategories()))

	require.NoError(t, repo.UpdateAchieved(ctx, "Run a Marathon", 7))

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	for i, cat := range categories {
		assert.Equal(t, model.DefaultCategories()[i].Achieved, cat.Achieved, cat.Name)
	}
}

func TestEventRepository_AppendKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestDB(t))

	ids := []string{"c", "a", "b"}
	for i, id := range ids {
		ev := model.Event{ID: id, Category: "Mental Habits", Date: day(i + 1), Points: i}
		require.NoError(t, repo.Append(ctx, &ev))
		assert.Equal(t, int64(i+1), ev.Seq)
	}

	events, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, ids[i], ev.ID)
	}
}

func TestEventRepository_AppendDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestDB(t))

	first := model.Event{ID: "same", Category: "Mental Habits", Date: day(1)}
	require.NoError(t, repo.Append(ctx, &first))

	second := model.Event{ID: "same", Category: "Get a Dental Exam", Date: day(2)}
	err := repo.Append(ctx, &second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))

	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "same", dup.ID)

	events, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventRepository_ReplaceAndRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestDB(t))

	ev := model.Event{ID: "e1", Category: "Mental Habits", Date: day(1), Points: 5}
	require.NoError(t, repo.Append(ctx, &ev))

	require.NoError(t, repo.Replace(ctx, "e1", model.Event{Category: "Get a Dental Exam", Date: day(3), Points: 0}))
	got, err := repo.FindByID(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Get a Dental Exam", got.Category)
	assert.True(t, day(3).Equal(got.Date))
	assert.Equal(t, 0, got.Points)
	assert.Equal(t, ev.Seq, got.Seq)

	require.NoError(t, repo.Replace(ctx, "missing", model.Event{Category: "x", Date: day(4)}))

	removed, err := repo.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Remove(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = repo.FindByID(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	first, err := repo.UpsertFromTelegram(ctx, 42, 420, "Ann", "", "ann")
	require.NoError(t, err)
	second, err := repo.UpsertFromTelegram(ctx, 42, 421, "Anna", "", "ann")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(421), users[0].ChatID)
	assert.Equal(t, "Anna", users[0].FirstName)
}

func TestEnsureDirForSQLite(t *testing.T) {
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite(DefaultDSN))
	assert.NoError(t, ensureDirForSQLite("wellness.db"))

	dir := t.TempDir()
	require.NoError(t, ensureDirForSQLite("file:"+dir+"/nested/wellness.db?_fk=1"))
	assert.DirExists(t, dir+"/nested")
}
