package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionbank/config"
	"regionbank/events"
	"regionbank/models"
	"regionbank/repository/testutil"
)

func TestBankRepository_CreateAndLoad(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	defaults := config.DefaultBankConfig()
	banks := NewBankRepository(testDB.DB, defaults, nil)
	accounts := NewAccountRepository(testDB.DB)

	owner := uuid.New()
	holder := uuid.New()
	coOwner := uuid.New()

	admin := testutil.CreateTestBank("Spawn")
	require.NoError(t, banks.Create(ctx, admin))

	player := testutil.CreateTestPlayerBank("Harbor", owner)
	player.Overrides = models.BankConfigOverrides{
		InterestRate:    testutil.Ptr(decimal.RequireFromString("0.025")),
		Multipliers:     []int{1, 2, 4},
		MinimumBalance:  testutil.Ptr(decimal.RequireFromString("100")),
		PayOnLowBalance: testutil.Ptr(false),
		RevenueFormula:  testutil.Ptr("x / 100"),
		PayoutTimes:     []models.TimeOfDay{{Hour: 18, Minute: 30}, {Hour: 6}},
	}
	require.NoError(t, banks.Create(ctx, player))

	account := testutil.CreateTestAccount(player.ID, holder, "1500.50")
	account.CoOwners = []uuid.UUID{coOwner}
	require.NoError(t, accounts.Create(ctx, account))

	loaded, err := banks.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	t.Run("admin bank inherits defaults", func(t *testing.T) {
		bank := loaded[0]
		assert.Equal(t, "Spawn", bank.Name)
		assert.Nil(t, bank.Owner)
		assert.True(t, bank.Config.InterestRate.Equal(defaults.InterestRate))
		assert.Equal(t, defaults.Multipliers, bank.Config.Multipliers)
		assert.Equal(t, defaults.PayoutTimes, bank.Config.PayoutTimes)
		assert.Equal(t, defaults.RevenueFormula, bank.Config.RevenueFormula)
		assert.Empty(t, bank.Accounts)
	})

	t.Run("player bank overrides", func(t *testing.T) {
		bank := loaded[1]
		require.NotNil(t, bank.Owner)
		assert.Equal(t, owner, *bank.Owner)
		assert.True(t, bank.Config.InterestRate.Equal(decimal.RequireFromString("0.025")))
		assert.Equal(t, []int{1, 2, 4}, bank.Config.Multipliers)
		assert.True(t, bank.Config.MinimumBalance.Equal(decimal.RequireFromString("100")))
		assert.False(t, bank.Config.PayOnLowBalance)
		assert.Equal(t, "x / 100", bank.Config.RevenueFormula)
		assert.Equal(t, []models.TimeOfDay{{Hour: 6}, {Hour: 18, Minute: 30}}, bank.Config.PayoutTimes)

		// Unset overrides still come from the defaults
		assert.Equal(t, defaults.AllowedOfflinePayouts, bank.Config.AllowedOfflinePayouts)
		assert.Nil(t, bank.Overrides.AllowedOfflinePayouts)
	})

	t.Run("accounts with co-owners", func(t *testing.T) {
		bank := loaded[1]
		require.Len(t, bank.Accounts, 1)
		acc := bank.Accounts[0]
		assert.Equal(t, account.ID, acc.ID)
		assert.Equal(t, holder, acc.Owner)
		assert.Equal(t, []uuid.UUID{coOwner}, acc.CoOwners)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("1500.50")))
		assert.True(t, acc.PreviousBalance.Equal(acc.Balance))
	})
}

func TestBankRepository_LoadByIDs(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	banks := NewBankRepository(testDB.DB, config.DefaultBankConfig(), nil)

	first := testutil.CreateTestBank("North")
	second := testutil.CreateTestBank("South")
	require.NoError(t, banks.Create(ctx, first))
	require.NoError(t, banks.Create(ctx, second))

	loaded, err := banks.LoadByIDs(ctx, []int64{second.ID, 9999})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "South", loaded[0].Name)

	missing, err := banks.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := banks.LoadByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBankRepository_UpdateConfigPublishesAfterCommit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	defaults := config.DefaultBankConfig()

	bus := events.NewBus()
	changed := make(chan int64, 2)
	bus.Subscribe(events.EventTypeBankConfigChanged, func(ctx context.Context, event events.Event) {
		changed <- event.(events.BankConfigChangedEvent).BankID
	})

	bank := testutil.CreateTestBank("Harbor")
	require.NoError(t, NewBankRepository(testDB.DB, defaults, nil).Create(ctx, bank))

	factory := NewUnitOfWorkFactory(testDB.DB, bus, defaults)
	newTimes := models.BankConfigOverrides{PayoutTimes: []models.TimeOfDay{{Hour: 12}}}

	t.Run("rolled back change is not announced", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.Banks().UpdateConfig(ctx, bank.ID, newTimes))
		require.NoError(t, uow.Rollback())

		select {
		case <-changed:
			t.Fatal("event delivered for rolled back change")
		case <-time.After(50 * time.Millisecond):
		}

		reloaded, err := NewBankRepository(testDB.DB, defaults, nil).GetByID(ctx, bank.ID)
		require.NoError(t, err)
		assert.Equal(t, defaults.PayoutTimes, reloaded.Config.PayoutTimes)
	})

	t.Run("committed change is announced", func(t *testing.T) {
		err := factory.Run(ctx, func(uow *UnitOfWork) error {
			return uow.Banks().UpdateConfig(ctx, bank.ID, newTimes)
		})
		require.NoError(t, err)

		select {
		case id := <-changed:
			assert.Equal(t, bank.ID, id)
		case <-time.After(time.Second):
			t.Fatal("config change event not delivered")
		}

		reloaded, err := NewBankRepository(testDB.DB, defaults, nil).GetByID(ctx, bank.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.TimeOfDay{{Hour: 12}}, reloaded.Config.PayoutTimes)
	})

	t.Run("unknown bank", func(t *testing.T) {
		err := factory.Run(ctx, func(uow *UnitOfWork) error {
			return uow.Banks().UpdateConfig(ctx, 9999, newTimes)
		})
		assert.Error(t, err)
	})
}
