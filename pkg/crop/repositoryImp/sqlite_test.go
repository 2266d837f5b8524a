package repositoryImp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmsight/database"
	"farmsight/entities"
	"farmsight/pkg/crop/repository"
)

func newRepo(t *testing.T) repository.CropRepository {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(db)
}

func record(name string, created time.Time, tags ...string) *entities.CropRecord {
	return &entities.CropRecord{
		CropName:       name,
		CropYear:       2021,
		Season:         "Kharif",
		Area:           2.5,
		AnnualRainfall: 1200,
		Fertilizer:     50,
		Pesticide:      5,
		Tags:           tags,
		CreatedAt:      created,
	}
}

func TestSQLiteRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	c := record("Rice", time.Now().UTC(), "north")
	require.NoError(t, r.Create(ctx, c))
	_, err := uuid.Parse(c.ID)
	require.NoError(t, err)

	got, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice", got.CropName)
	assert.Equal(t, []string{"north"}, got.Tags)
	assert.Nil(t, got.PredictedYield)

	byName, err := r.FindByName(ctx, "Rice")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)

	y := 3.2
	now := time.Now().UTC()
	got.PredictedYield = &y
	got.UpdatedAt = &now
	require.NoError(t, r.Update(ctx, got))

	again, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, again.PredictedYield)
	assert.Equal(t, 3.2, *again.PredictedYield)
	assert.NotNil(t, again.UpdatedAt)

	require.NoError(t, r.Delete(ctx, c.ID))
	_, err = r.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, c.ID), repository.ErrNotFound)
}

func TestSQLiteRepo_InvalidAndMissingIDs(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	_, err := r.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrInvalidID)
	assert.ErrorIs(t, r.Delete(ctx, "42"), repository.ErrInvalidID)

	_, err = r.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = r.FindByName(ctx, "Nothing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSQLiteRepo_ListOrderPagingAndTags(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Create(ctx, record("Rice", base, "north", "priority")))
	require.NoError(t, r.Create(ctx, record("Wheat", base.Add(time.Hour), "south")))
	require.NoError(t, r.Create(ctx, record("Maize", base.Add(2*time.Hour), "north")))

	all, err := r.List(ctx, repository.ListFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Maize", "Wheat", "Rice"}, names(all))

	page, err := r.List(ctx, repository.ListFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wheat"}, names(page))

	north, err := r.List(ctx, repository.ListFilter{Tag: "north", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"Maize", "Rice"}, names(north))

	none, err := r.List(ctx, repository.ListFilter{Tag: "nort", Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestSQLiteRepo_Ping(t *testing.T) {
	assert.NoError(t, newRepo(t).Ping(context.Background()))
}

func names(list []entities.CropRecord) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.CropName)
	}
	return out
}
