package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"regionbank/models"
)

// PayoutTrigger is one scheduler firing: the time of day that fired and the banks
// configured for it, captured when the timer fired
type PayoutTrigger struct {
	Time    models.TimeOfDay
	FiredAt time.Time
	Banks   []*models.Bank
}

// PayoutInterceptor may veto a trigger before it is processed by returning false
type PayoutInterceptor func(ctx context.Context, trigger PayoutTrigger) bool

// CycleResult is everything one processed trigger produced
type CycleResult struct {
	Vetoed          bool
	Settlements     []models.AccountInterest
	Incomes         []models.BankIncome
	Payments        PaymentBatch
	AccountsSettled int
	AccountsSkipped int
	TotalInterest   decimal.Decimal
	TotalFees       decimal.Decimal
}

// PayoutOrchestrator runs the interest cycle for a batch of banks. Process must
// be called from a single goroutine: it mutates accounts in place.
type PayoutOrchestrator struct {
	presence     PresenceLookup
	persistence  PersistenceGateway
	payments     PaymentSettler
	jobs         JobSubmitter
	revenue      *RevenueEvaluator
	multipliers  MultiplierStateMachine
	governor     OfflinePayoutGovernor
	interceptors []PayoutInterceptor
	now          func() time.Time
}

// NewPayoutOrchestrator creates a new payout orchestrator
func NewPayoutOrchestrator(
	presence PresenceLookup,
	persistence PersistenceGateway,
	payments PaymentSettler,
	jobs JobSubmitter,
	revenue *RevenueEvaluator,
) *PayoutOrchestrator {
	return &PayoutOrchestrator{
		presence:    presence,
		persistence: persistence,
		payments:    payments,
		jobs:        jobs,
		revenue:     revenue,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AddInterceptor registers a veto hook consulted before each trigger
func (o *PayoutOrchestrator) AddInterceptor(interceptor PayoutInterceptor) {
	o.interceptors = append(o.interceptors, interceptor)
}

// Process settles every account of every bank in the trigger, then hands the
// records to persistence and the payments to the settler as independent jobs
func (o *PayoutOrchestrator) Process(ctx context.Context, trigger PayoutTrigger) *CycleResult {
	for _, allow := range o.interceptors {
		if !allow(ctx, trigger) {
			log.WithFields(log.Fields{
				"payout_time": trigger.Time.String(),
				"banks":       len(trigger.Banks),
			}).Info("Payout vetoed by interceptor")
			return &CycleResult{Vetoed: true}
		}
	}

	result := &CycleResult{
		TotalInterest: decimal.Zero,
		TotalFees:     decimal.Zero,
	}
	at := o.now()
	accountStates := make(map[int64][]models.AccountState, len(trigger.Banks))
	bankIDs := make([]int64, 0, len(trigger.Banks))

	for _, bank := range trigger.Banks {
		states := o.processBank(bank, at, result)
		accountStates[bank.ID] = states
		bankIDs = append(bankIDs, bank.ID)
	}

	o.dispatch(trigger, bankIDs, accountStates, result)

	log.WithFields(log.Fields{
		"payout_time":      trigger.Time.String(),
		"banks":            len(trigger.Banks),
		"accounts_settled": result.AccountsSettled,
		"accounts_skipped": result.AccountsSkipped,
		"total_interest":   result.TotalInterest.StringFixed(models.MoneyScale),
		"total_fees":       result.TotalFees.StringFixed(models.MoneyScale),
	}).Info("Completed interest payout cycle")

	return result
}

// processBank settles one bank and appends its records to result. It returns the
// account states to persist.
func (o *PayoutOrchestrator) processBank(bank *models.Bank, at time.Time, result *CycleResult) []models.AccountState {
	cfg := bank.Config
	interestPaid := decimal.Zero
	feesCollected := decimal.Zero
	states := make([]models.AccountState, 0, len(bank.Accounts))

	for _, account := range bank.Accounts {
		present := o.anyPresent(account)

		if o.multipliers.ObserveBalance(cfg, account) {
			log.WithFields(log.Fields{
				"account_id": account.ID,
				"stage":      account.MultiplierStage,
			}).Debug("Withdrawal detected, multiplier lowered")
		}

		if !o.governor.Apply(cfg, account, present) {
			account.MultiplierStage = ClampStage(account.MultiplierStage, cfg.Multipliers)
			result.AccountsSkipped++
			states = append(states, account.State())
			continue
		}

		fee := decimal.Zero
		if account.Balance.LessThan(cfg.MinimumBalance) {
			fee = models.RoundMoney(cfg.LowBalanceFee)
			if !cfg.PayOnLowBalance {
				account.MultiplierStage = ClampStage(account.MultiplierStage, cfg.Multipliers)
				o.settle(bank, account, decimal.Zero, fee, at, result)
				feesCollected = feesCollected.Add(fee)
				states = append(states, account.State())
				continue
			}
		}

		multiplier := o.multipliers.EffectiveMultiplier(cfg, account.MultiplierStage)
		interest := models.RoundMoney(account.Balance.Mul(cfg.InterestRate).Mul(multiplier))

		account.MultiplierStage = o.multipliers.Advance(cfg, account.MultiplierStage, present)
		account.PreviousBalance = account.Balance

		o.settle(bank, account, interest, fee, at, result)
		interestPaid = interestPaid.Add(interest)
		feesCollected = feesCollected.Add(fee)
		states = append(states, account.State())
	}

	revenue := o.revenue.Evaluate(bank)
	income := models.NewBankIncome(bank, revenue, interestPaid, feesCollected, at)
	result.Incomes = append(result.Incomes, income)
	if !revenue.IsZero() {
		result.Payments.Revenue = append(result.Payments.Revenue, BankPayout{
			BankID: bank.ID,
			Owner:  income.Recipient,
			Amount: revenue,
		})
	}

	log.WithFields(log.Fields{
		"bank_id":        bank.ID,
		"accounts":       len(bank.Accounts),
		"interest_paid":  interestPaid.StringFixed(models.MoneyScale),
		"fees_collected": feesCollected.StringFixed(models.MoneyScale),
		"revenue":        revenue.StringFixed(models.MoneyScale),
	}).Debug("Bank settled")

	return states
}

// settle appends one settlement record and its payment legs
func (o *PayoutOrchestrator) settle(bank *models.Bank, account *models.Account, interest, fee decimal.Decimal, at time.Time, result *CycleResult) {
	settlement := models.NewAccountInterest(account, interest, fee, at)
	result.Settlements = append(result.Settlements, settlement)
	result.AccountsSettled++
	result.TotalInterest = result.TotalInterest.Add(settlement.Interest)
	result.TotalFees = result.TotalFees.Add(settlement.LowBalanceFee)

	if !settlement.Interest.IsZero() {
		result.Payments.Interest = append(result.Payments.Interest, newAccountPayout(bank, account, settlement.Interest))
	}
	if !settlement.LowBalanceFee.IsZero() {
		result.Payments.Fees = append(result.Payments.Fees, newAccountPayout(bank, account, settlement.LowBalanceFee))
	}
}

func newAccountPayout(bank *models.Bank, account *models.Account, amount decimal.Decimal) AccountPayout {
	p := AccountPayout{
		AccountID: account.ID,
		BankID:    bank.ID,
		Holder:    account.Owner,
		Amount:    amount,
	}
	if bank.Owner != nil {
		owner := *bank.Owner
		p.BankOwner = &owner
	}
	return p
}

func (o *PayoutOrchestrator) anyPresent(account *models.Account) bool {
	for _, player := range account.TrustedPlayers() {
		if o.presence.IsPresent(player) {
			return true
		}
	}
	return false
}

// dispatch submits the side effects of a cycle. Every job only sees copies made
// here, never the live accounts.
func (o *PayoutOrchestrator) dispatch(trigger PayoutTrigger, bankIDs []int64, accountStates map[int64][]models.AccountState, result *CycleResult) {
	for _, bankID := range bankIDs {
		bankID := bankID
		states := accountStates[bankID]
		if len(states) == 0 {
			continue
		}
		o.jobs.Submit(fmt.Sprintf("persist-accounts-%d", bankID), func(ctx context.Context) error {
			return o.persistence.PersistAccounts(ctx, bankID, states)
		})
	}

	settlements := append([]models.AccountInterest(nil), result.Settlements...)
	if len(settlements) > 0 {
		o.jobs.Submit("persist-settlements", func(ctx context.Context) error {
			return o.persistence.PersistSettlements(ctx, settlements)
		})
	}

	incomes := append([]models.BankIncome(nil), result.Incomes...)
	if len(incomes) > 0 {
		o.jobs.Submit("persist-incomes", func(ctx context.Context) error {
			return o.persistence.PersistIncomes(ctx, incomes)
		})
	}

	run := &models.InterestRun{
		PayoutTime:               trigger.Time,
		FiredAt:                  trigger.FiredAt,
		BanksProcessed:           len(bankIDs),
		AccountsSettled:          result.AccountsSettled,
		AccountsSkipped:          result.AccountsSkipped,
		TotalInterestDistributed: result.TotalInterest,
		TotalFeesCollected:       result.TotalFees,
		ExecutionSummary: map[string]interface{}{
			"bank_ids":      bankIDs,
			"settlements":   len(settlements),
			"incomes":       len(incomes),
			"interest_legs": len(result.Payments.Interest),
			"fee_legs":      len(result.Payments.Fees),
			"revenue_legs":  len(result.Payments.Revenue),
		},
	}
	o.jobs.Submit("persist-run", func(ctx context.Context) error {
		return o.persistence.PersistRun(ctx, run)
	})

	if !result.Payments.IsEmpty() {
		payments := PaymentBatch{
			Interest: append([]AccountPayout(nil), result.Payments.Interest...),
			Fees:     append([]AccountPayout(nil), result.Payments.Fees...),
			Revenue:  append([]BankPayout(nil), result.Payments.Revenue...),
		}
		o.jobs.Submit("distribute-payments", func(ctx context.Context) error {
			o.payments.Distribute(ctx, payments)
			return nil
		})
	}
}
