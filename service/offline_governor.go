package service

import (
	"regionbank/models"
)

// PayoutDecision is the governor's verdict for one account in one cycle, together
// with the counters the account should carry into the next cycle
type PayoutDecision struct {
	Permitted               bool
	DelayUntilNextPayout    int
	RemainingOfflinePayouts int
}

// OfflinePayoutGovernor limits payouts to accounts whose trusted players are away
type OfflinePayoutGovernor struct{}

// Evaluate decides whether an account may be paid this cycle. It is pure; the
// caller applies the returned counters.
func (OfflinePayoutGovernor) Evaluate(cfg models.BankConfig, delayUntilNextPayout, remainingOfflinePayouts int, trustedPresent bool) PayoutDecision {
	decision := PayoutDecision{
		DelayUntilNextPayout:    delayUntilNextPayout,
		RemainingOfflinePayouts: remainingOfflinePayouts,
	}

	// Still ramping up: count down and deny
	if delayUntilNextPayout > 0 {
		if trustedPresent || cfg.CountInterestDelayOffline {
			decision.DelayUntilNextPayout = delayUntilNextPayout - 1
		}
		return decision
	}

	if trustedPresent {
		decision.Permitted = true
		decision.RemainingOfflinePayouts = cfg.AllowedOfflinePayouts
		return decision
	}

	// Nobody home: allow this one, then reduce the budget
	if remainingOfflinePayouts > 0 {
		decision.Permitted = true
		decision.RemainingOfflinePayouts = remainingOfflinePayouts - 1
	}
	return decision
}

// Apply evaluates the governor for an account and stores the updated counters
func (g OfflinePayoutGovernor) Apply(cfg models.BankConfig, account *models.Account, trustedPresent bool) bool {
	decision := g.Evaluate(cfg, account.DelayUntilNextPayout, account.RemainingOfflinePayouts, trustedPresent)
	account.DelayUntilNextPayout = decision.DelayUntilNextPayout
	account.RemainingOfflinePayouts = decision.RemainingOfflinePayouts
	return decision.Permitted
}
