package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionbank/models"
	"regionbank/repository/testutil"
)

func TestInterestRunRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewInterestRunRepository(testDB.DB)

	nine := models.TimeOfDay{Hour: 9}
	firedAt := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("no runs yet", func(t *testing.T) {
		run, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("successful creation", func(t *testing.T) {
		run := testutil.CreateTestInterestRun(nine, firedAt)
		require.NoError(t, repo.Create(ctx, run))
		assert.NotZero(t, run.ID)
		assert.False(t, run.CreatedAt.IsZero())

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, nine, latest.PayoutTime)
		assert.True(t, latest.FiredAt.Equal(firedAt))
		assert.Equal(t, 2, latest.BanksProcessed)
		assert.Equal(t, 10, latest.AccountsSettled)
		assert.Equal(t, 1, latest.AccountsSkipped)
		assert.True(t, latest.TotalInterestDistributed.Equal(decimal.RequireFromString("50.25")))
		assert.True(t, latest.TotalFeesCollected.Equal(decimal.RequireFromString("4")))
		assert.Equal(t, float64(10), latest.ExecutionSummary["interest_legs"])
	})

	t.Run("same firing recorded once", func(t *testing.T) {
		duplicate := testutil.CreateTestInterestRun(nine, firedAt)
		require.NoError(t, repo.Create(ctx, duplicate))
		assert.Zero(t, duplicate.ID)

		runs, err := repo.ListSince(ctx, firedAt.Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("list since", func(t *testing.T) {
		later := testutil.CreateTestInterestRun(models.TimeOfDay{Hour: 18, Minute: 15}, firedAt.Add(9*time.Hour+15*time.Minute))
		require.NoError(t, repo.Create(ctx, later))

		runs, err := repo.ListSince(ctx, firedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, models.TimeOfDay{Hour: 18, Minute: 15}, runs[0].PayoutTime)
	})
}

func TestInterestRunRepository_GetLatest(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewInterestRunRepository(testDB.DB)

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("multiple runs returns latest", func(t *testing.T) {
		for i, hour := range []int{9, 12, 18} {
			run := testutil.CreateTestInterestRun(models.TimeOfDay{Hour: hour}, base.Add(time.Duration(i*3)*time.Hour))
			require.NoError(t, repo.Create(ctx, run))
		}

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, models.TimeOfDay{Hour: 18}, latest.PayoutTime)
	})

	t.Run("empty execution summary", func(t *testing.T) {
		run := testutil.CreateTestInterestRun(models.TimeOfDay{Hour: 23}, base.Add(24*time.Hour))
		run.ExecutionSummary = map[string]interface{}{}
		run.TotalFeesCollected = decimal.Zero
		require.NoError(t, repo.Create(ctx, run))

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, run.ID, latest.ID)
		assert.Empty(t, latest.ExecutionSummary)
		assert.True(t, latest.TotalFeesCollected.IsZero())
	})
}
