package service

import (
	"github.com/shopspring/decimal"

	"regionbank/models"
)

// MultiplierStateMachine moves an account's multiplier stage through the bank's
// multiplier list. All methods are pure: they return the new stage and never
// touch the account.
type MultiplierStateMachine struct{}

// ClampStage limits a stage to [0, len(multipliers)-1]; an empty list clamps to 0
func ClampStage(stage int, multipliers []int) int {
	if stage < 0 || len(multipliers) == 0 {
		return 0
	}
	if stage > len(multipliers)-1 {
		return len(multipliers) - 1
	}
	return stage
}

// EffectiveMultiplier returns the multiplier value at stage, or 1 when the list
// is empty or the stage no longer exists after the list was shrunk
func (MultiplierStateMachine) EffectiveMultiplier(cfg models.BankConfig, stage int) decimal.Decimal {
	if stage < 0 || stage >= len(cfg.Multipliers) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(int64(cfg.Multipliers[stage]))
}

// Advance applies the per-cycle transition: up one stage when a trusted player
// is present, otherwise down by the offline decrement
func (MultiplierStateMachine) Advance(cfg models.BankConfig, stage int, trustedPresent bool) int {
	stage = ClampStage(stage, cfg.Multipliers)
	if trustedPresent {
		return ClampStage(stage+1, cfg.Multipliers)
	}
	return ClampStage(stage-cfg.OfflineMultiplierDecrement, cfg.Multipliers)
}

// AfterWithdrawal applies the withdrawal transition. A negative decrement resets
// the stage to zero.
func (MultiplierStateMachine) AfterWithdrawal(cfg models.BankConfig, stage int) int {
	if cfg.WithdrawalMultiplierDecrement < 0 {
		return 0
	}
	return ClampStage(stage-cfg.WithdrawalMultiplierDecrement, cfg.Multipliers)
}

// ObserveBalance checks a newly observed balance against the balance recorded at
// the previous cycle. On a withdrawal it lowers the stage and moves the reference
// point so the same withdrawal is not penalised twice. Returns true on withdrawal.
func (m MultiplierStateMachine) ObserveBalance(cfg models.BankConfig, account *models.Account) bool {
	if !account.Balance.LessThan(account.PreviousBalance) {
		return false
	}
	account.MultiplierStage = m.AfterWithdrawal(cfg, account.MultiplierStage)
	account.PreviousBalance = account.Balance
	return true
}
