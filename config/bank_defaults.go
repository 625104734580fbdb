package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"regionbank/models"
)

// DefaultRevenueFormula pays the owner a share of deposits scaled down by inequality
const DefaultRevenueFormula = "0.10 * x * (1 - g) * log(n)"

// bankDefaultsFile mirrors the YAML layout of the bank defaults file
type bankDefaultsFile struct {
	InterestRate                  *string  `yaml:"interest_rate"`
	Multipliers                   []int    `yaml:"multipliers"`
	MinimumBalance                *string  `yaml:"minimum_balance"`
	LowBalanceFee                 *string  `yaml:"low_balance_fee"`
	PayOnLowBalance               *bool    `yaml:"pay_on_low_balance"`
	AllowedOfflinePayouts         *int     `yaml:"allowed_offline_payouts"`
	OfflineMultiplierDecrement    *int     `yaml:"offline_multiplier_decrement"`
	WithdrawalMultiplierDecrement *int     `yaml:"withdrawal_multiplier_decrement"`
	CountInterestDelayOffline     *bool    `yaml:"count_interest_delay_offline"`
	InitialInterestDelay          *int     `yaml:"initial_interest_delay"`
	RevenueFormula                *string  `yaml:"revenue_formula"`
	PayoutTimes                   []string `yaml:"payout_times"`
}

// DefaultBankConfig returns the built-in global bank defaults
func DefaultBankConfig() models.BankConfig {
	return models.BankConfig{
		InterestRate:                  decimal.RequireFromString("0.01"),
		Multipliers:                   []int{1},
		MinimumBalance:                models.MustMoney("0"),
		LowBalanceFee:                 models.MustMoney("0"),
		PayOnLowBalance:               true,
		AllowedOfflinePayouts:         1,
		OfflineMultiplierDecrement:    0,
		WithdrawalMultiplierDecrement: 1,
		CountInterestDelayOffline:     false,
		InitialInterestDelay:          0,
		RevenueFormula:                DefaultRevenueFormula,
		PayoutTimes:                   []models.TimeOfDay{{Hour: 9, Minute: 0}},
	}
}

// LoadBankDefaults reads the YAML defaults file and layers it over DefaultBankConfig
func LoadBankDefaults(path string) (models.BankConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.BankConfig{}, fmt.Errorf("failed to read bank defaults: %w", err)
	}
	return ParseBankDefaults(raw)
}

// ParseBankDefaults parses YAML bank defaults
func ParseBankDefaults(raw []byte) (models.BankConfig, error) {
	var file bankDefaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return models.BankConfig{}, fmt.Errorf("bank defaults: %w", err)
	}

	var overrides models.BankConfigOverrides
	var err error
	if overrides.InterestRate, err = parseOptionalDecimal("interest_rate", file.InterestRate); err != nil {
		return models.BankConfig{}, err
	}
	if overrides.MinimumBalance, err = parseOptionalDecimal("minimum_balance", file.MinimumBalance); err != nil {
		return models.BankConfig{}, err
	}
	if overrides.LowBalanceFee, err = parseOptionalDecimal("low_balance_fee", file.LowBalanceFee); err != nil {
		return models.BankConfig{}, err
	}
	overrides.Multipliers = file.Multipliers
	overrides.PayOnLowBalance = file.PayOnLowBalance
	overrides.AllowedOfflinePayouts = file.AllowedOfflinePayouts
	overrides.OfflineMultiplierDecrement = file.OfflineMultiplierDecrement
	overrides.WithdrawalMultiplierDecrement = file.WithdrawalMultiplierDecrement
	overrides.CountInterestDelayOffline = file.CountInterestDelayOffline
	overrides.InitialInterestDelay = file.InitialInterestDelay
	overrides.RevenueFormula = file.RevenueFormula

	if file.PayoutTimes != nil {
		overrides.PayoutTimes = make([]models.TimeOfDay, 0, len(file.PayoutTimes))
		for _, s := range file.PayoutTimes {
			t, err := models.ParseTimeOfDay(s)
			if err != nil {
				return models.BankConfig{}, fmt.Errorf("bank defaults: payout_times: %w", err)
			}
			overrides.PayoutTimes = append(overrides.PayoutTimes, t)
		}
	}

	return overrides.Resolve(DefaultBankConfig()), nil
}

func parseOptionalDecimal(field string, value *string) (*decimal.Decimal, error) {
	if value == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*value)
	if err != nil {
		return nil, fmt.Errorf("bank defaults: %s: %w", field, err)
	}
	return &d, nil
}
