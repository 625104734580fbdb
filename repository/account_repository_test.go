package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionbank/config"
	"regionbank/models"
	"regionbank/repository/testutil"
)

func TestAccountRepository_UpdateStates(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	banks := NewBankRepository(testDB.DB, config.DefaultBankConfig(), nil)
	accounts := NewAccountRepository(testDB.DB)

	bank := testutil.CreateTestBank("Spawn")
	require.NoError(t, banks.Create(ctx, bank))
	other := testutil.CreateTestBank("Elsewhere")
	require.NoError(t, banks.Create(ctx, other))

	first := testutil.CreateTestAccount(bank.ID, uuid.New(), "1000")
	second := testutil.CreateTestAccount(bank.ID, uuid.New(), "250")
	foreign := testutil.CreateTestAccount(other.ID, uuid.New(), "10")
	require.NoError(t, accounts.Create(ctx, first))
	require.NoError(t, accounts.Create(ctx, second))
	require.NoError(t, accounts.Create(ctx, foreign))

	err := accounts.UpdateStates(ctx, bank.ID, []models.AccountState{
		{AccountID: first.ID, PreviousBalance: decimal.RequireFromString("1000"), MultiplierStage: 2, RemainingOfflinePayouts: 3, DelayUntilNextPayout: 0},
		{AccountID: second.ID, PreviousBalance: decimal.RequireFromString("200"), MultiplierStage: 0, RemainingOfflinePayouts: 0, DelayUntilNextPayout: 4},
		// Belongs to another bank and must not be touched
		{AccountID: foreign.ID, MultiplierStage: 7},
	})
	require.NoError(t, err)

	got, err := accounts.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MultiplierStage)
	assert.Equal(t, 3, got.RemainingOfflinePayouts)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("1000")))

	got, err = accounts.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.PreviousBalance.Equal(decimal.RequireFromString("200")))
	assert.Equal(t, 4, got.DelayUntilNextPayout)

	got, err = accounts.GetByID(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MultiplierStage)

	assert.NoError(t, accounts.UpdateStates(ctx, bank.ID, nil))
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	banks := NewBankRepository(testDB.DB, config.DefaultBankConfig(), nil)
	accounts := NewAccountRepository(testDB.DB)

	bank := testutil.CreateTestBank("Spawn")
	require.NoError(t, banks.Create(ctx, bank))
	account := testutil.CreateTestAccount(bank.ID, uuid.New(), "500")
	require.NoError(t, accounts.Create(ctx, account))

	require.NoError(t, accounts.UpdateBalance(ctx, account.ID, decimal.RequireFromString("420.255")))

	got, err := accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("420.26")), "balance %s", got.Balance)
	assert.True(t, got.PreviousBalance.Equal(decimal.RequireFromString("500")))

	assert.Error(t, accounts.UpdateBalance(ctx, 9999, decimal.Zero))

	missing, err := accounts.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
