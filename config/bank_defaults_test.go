package config

import (
	"testing"

	"regionbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBankDefaults(t *testing.T) {
	t.Run("empty file keeps built-in defaults", func(t *testing.T) {
		cfg, err := ParseBankDefaults([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultBankConfig(), cfg)
	})

	t.Run("overrides individual fields", func(t *testing.T) {
		raw := []byte(`
interest_rate: "0.025"
multipliers: [1, 2, 3]
minimum_balance: "600"
low_balance_fee: "5.005"
pay_on_low_balance: false
allowed_offline_payouts: 3
withdrawal_multiplier_decrement: -1
revenue_formula: "x * 0.01"
payout_times: ["09:00", "21:30"]
`)
		cfg, err := ParseBankDefaults(raw)
		require.NoError(t, err)

		assert.Equal(t, "0.025", cfg.InterestRate.String())
		assert.Equal(t, []int{1, 2, 3}, cfg.Multipliers)
		assert.Equal(t, "600", cfg.MinimumBalance.String())
		assert.Equal(t, "5", cfg.LowBalanceFee.String()) // 5.005 rounds half-to-even
		assert.False(t, cfg.PayOnLowBalance)
		assert.Equal(t, 3, cfg.AllowedOfflinePayouts)
		assert.Equal(t, -1, cfg.WithdrawalMultiplierDecrement)
		assert.Equal(t, "x * 0.01", cfg.RevenueFormula)
		assert.Equal(t, []models.TimeOfDay{{Hour: 9}, {Hour: 21, Minute: 30}}, cfg.PayoutTimes)

		// Untouched fields inherit
		assert.Equal(t, DefaultBankConfig().OfflineMultiplierDecrement, cfg.OfflineMultiplierDecrement)
	})

	t.Run("malformed decimal", func(t *testing.T) {
		_, err := ParseBankDefaults([]byte(`interest_rate: "abc"`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "interest_rate")
	})

	t.Run("malformed payout time", func(t *testing.T) {
		_, err := ParseBankDefaults([]byte(`payout_times: ["25:99"]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payout_times")
	})
}
