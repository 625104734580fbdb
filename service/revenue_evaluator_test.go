package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionbank/models"
)

func newFormulaBank(formula string, accounts ...*models.Account) *models.Bank {
	cfg := testBankConfig()
	cfg.RevenueFormula = formula
	return &models.Bank{ID: 1, Name: "Spawn", Config: cfg, Accounts: accounts}
}

func TestGiniCoefficient(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	t.Run("two holders, one with everything", func(t *testing.T) {
		gini := GiniCoefficient([]*models.Account{
			newTestAccount(1, 1, alice, "0"),
			newTestAccount(2, 1, bob, "100"),
		})
		assert.True(t, gini.Equal(money("0.5")), "got %s", gini)
	})

	t.Run("single holder", func(t *testing.T) {
		gini := GiniCoefficient([]*models.Account{
			newTestAccount(1, 1, alice, "40"),
			newTestAccount(2, 1, alice, "60"),
		})
		assert.True(t, gini.IsZero(), "got %s", gini)
	})

	t.Run("equal holders", func(t *testing.T) {
		gini := GiniCoefficient([]*models.Account{
			newTestAccount(1, 1, alice, "50"),
			newTestAccount(2, 1, bob, "50"),
		})
		assert.True(t, gini.IsZero(), "got %s", gini)
	})

	t.Run("no wealth", func(t *testing.T) {
		assert.True(t, GiniCoefficient(nil).IsZero())
		assert.True(t, GiniCoefficient([]*models.Account{newTestAccount(1, 1, alice, "0")}).IsZero())
	})

	t.Run("rounded to money scale", func(t *testing.T) {
		carol := uuid.New()
		gini := GiniCoefficient([]*models.Account{
			newTestAccount(1, 1, alice, "10"),
			newTestAccount(2, 1, bob, "20"),
			newTestAccount(3, 1, carol, "70"),
		})
		// 2*(10+40+210)/(3*100) - 4/3 = 0.4
		assert.True(t, gini.Equal(money("0.4")), "got %s", gini)
	})
}

func TestStatistics_OnlyRequested(t *testing.T) {
	bank := newFormulaBank("x", newTestAccount(1, 1, uuid.New(), "25.50"), newTestAccount(2, 1, uuid.New(), "4.50"))

	stats := Statistics(bank, map[string]bool{VarTotalValue: true, VarHolderCount: true})

	assert.Len(t, stats, 2)
	assert.InDelta(t, 30.0, stats[VarTotalValue], 1e-9)
	assert.InDelta(t, 2.0, stats[VarHolderCount], 1e-9)
	_, ok := stats[VarGini]
	assert.False(t, ok)
}

func TestRevenueEvaluator_Calculate(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	accounts := []*models.Account{
		newTestAccount(1, 1, alice, "0"),
		newTestAccount(2, 1, bob, "100"),
	}

	tests := []struct {
		name    string
		formula string
		want    string
	}{
		{name: "total value", formula: "0.1 * x", want: "10"},
		{name: "account count", formula: "a * 2.5", want: "5"},
		{name: "holders", formula: "n", want: "2"},
		{name: "gini", formula: "x * (1 - g)", want: "50"},
		{name: "functions", formula: "sqrt(x) + pow(a, 2)", want: "14"},
		{name: "rounds half even", formula: "0.125", want: "0.12"},
		{name: "constant", formula: "3", want: "3"},
	}

	evaluator := NewRevenueEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.Calculate(newFormulaBank(tt.formula, accounts...))
			require.NoError(t, err)
			assert.True(t, got.Equal(money(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestRevenueEvaluator_FailuresYieldZero(t *testing.T) {
	evaluator := NewRevenueEvaluator()
	account := newTestAccount(1, 1, uuid.New(), "100")

	formulas := []string{
		"x *",      // syntax error
		"y + 1",    // unknown variable
		"log(0)",   // -Inf
		"sqrt(-1)", // NaN
		"",         // empty
	}

	for _, formula := range formulas {
		bank := newFormulaBank(formula, account)

		_, err := evaluator.Calculate(bank)
		assert.True(t, errors.Is(err, ErrFormula), "formula %q: %v", formula, err)
		assert.True(t, evaluator.Evaluate(bank).IsZero(), "formula %q", formula)
	}
}

func TestRevenueEvaluator_CachesCompiledFormula(t *testing.T) {
	evaluator := NewRevenueEvaluator()
	bank := newFormulaBank("x / 2", newTestAccount(1, 1, uuid.New(), "10"))

	first := evaluator.Evaluate(bank)
	bank.Accounts[0].Balance = money("20")
	second := evaluator.Evaluate(bank)

	assert.True(t, first.Equal(money("5")))
	assert.True(t, second.Equal(money("10")))
	assert.Len(t, evaluator.compiled, 1)
}
