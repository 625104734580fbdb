package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"regionbank/models"
)

// ErrFormula wraps every revenue formula failure
var ErrFormula = errors.New("revenue formula error")

// Revenue formula variables
const (
	VarTotalValue   = "x" // sum of account balances
	VarAccountCount = "a" // number of accounts
	VarHolderCount  = "n" // number of distinct account owners
	VarGini         = "g" // Gini coefficient of per-owner balances
)

var formulaVariables = []string{VarTotalValue, VarAccountCount, VarHolderCount, VarGini}

var formulaFunctions = map[string]any{
	"log":   math.Log,
	"log10": math.Log10,
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"pow":   math.Pow,
}

type compiledFormula struct {
	program    *vm.Program
	referenced map[string]bool
}

// RevenueEvaluator computes a bank owner's revenue from the bank's configured formula
type RevenueEvaluator struct {
	mu       sync.Mutex
	compiled map[string]*compiledFormula
}

// NewRevenueEvaluator creates a new revenue evaluator
func NewRevenueEvaluator() *RevenueEvaluator {
	return &RevenueEvaluator{
		compiled: make(map[string]*compiledFormula),
	}
}

// Evaluate returns the bank's revenue at money scale. A formula that fails to
// compile or evaluate yields zero and is logged.
func (e *RevenueEvaluator) Evaluate(bank *models.Bank) decimal.Decimal {
	revenue, err := e.Calculate(bank)
	if err != nil {
		log.WithFields(log.Fields{
			"bank_id": bank.ID,
			"formula": bank.Config.RevenueFormula,
		}).WithError(err).Warn("Revenue formula failed, using zero revenue")
		return decimal.Zero
	}
	return revenue
}

// Calculate evaluates the bank's formula and reports failures
func (e *RevenueEvaluator) Calculate(bank *models.Bank) (decimal.Decimal, error) {
	formula, err := e.compile(bank.Config.RevenueFormula)
	if err != nil {
		return decimal.Zero, err
	}

	env := formulaEnv()
	for name, value := range Statistics(bank, formula.referenced) {
		env[name] = value
	}

	out, err := expr.Run(formula.program, env)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrFormula, err)
	}

	result, err := toFloat(out)
	if err != nil {
		return decimal.Zero, err
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return decimal.Zero, fmt.Errorf("%w: result is %v", ErrFormula, result)
	}
	return models.RoundMoney(decimal.NewFromFloat(result)), nil
}

// Statistics computes the requested formula variables for a bank. Variables not
// named in want are left out.
func Statistics(bank *models.Bank, want map[string]bool) map[string]float64 {
	stats := make(map[string]float64, len(want))
	if want[VarTotalValue] {
		stats[VarTotalValue] = bank.TotalValue().InexactFloat64()
	}
	if want[VarAccountCount] {
		stats[VarAccountCount] = float64(bank.AccountCount())
	}
	if want[VarHolderCount] {
		stats[VarHolderCount] = float64(bank.HolderCount())
	}
	if want[VarGini] {
		stats[VarGini] = GiniCoefficient(bank.Accounts).InexactFloat64()
	}
	return stats
}

// GiniCoefficient measures inequality of per-owner balance totals, rounded to
// money scale. Zero total wealth yields zero.
func GiniCoefficient(accounts []*models.Account) decimal.Decimal {
	perOwner := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range accounts {
		perOwner[a.Owner] = perOwner[a.Owner].Add(a.Balance)
	}

	values := make([]decimal.Decimal, 0, len(perOwner))
	total := decimal.Zero
	for _, v := range perOwner {
		values = append(values, v)
		total = total.Add(v)
	}
	if total.IsZero() {
		return decimal.Zero
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].LessThan(values[j])
	})

	k := decimal.NewFromInt(int64(len(values)))
	weighted := decimal.Zero
	for i, v := range values {
		weighted = weighted.Add(decimal.NewFromInt(int64(i + 1)).Mul(v))
	}

	// (2 * sum(i * v_i)) / (k * T) - (k + 1) / k
	gini := decimal.NewFromInt(2).Mul(weighted).Div(k.Mul(total)).
		Sub(k.Add(decimal.NewFromInt(1)).Div(k))
	return models.RoundMoney(gini)
}

func (e *RevenueEvaluator) compile(formula string) (*compiledFormula, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.compiled[formula]; ok {
		return c, nil
	}

	tree, err := parser.Parse(formula)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormula, err)
	}
	collector := &identifierCollector{found: make(map[string]bool)}
	ast.Walk(&tree.Node, collector)

	program, err := expr.Compile(formula, expr.Env(formulaEnv()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormula, err)
	}

	referenced := make(map[string]bool)
	for _, name := range formulaVariables {
		if collector.found[name] {
			referenced[name] = true
		}
	}

	c := &compiledFormula{program: program, referenced: referenced}
	e.compiled[formula] = c
	return c, nil
}

// formulaEnv returns a fresh environment with every variable zeroed
func formulaEnv() map[string]any {
	env := make(map[string]any, len(formulaVariables)+len(formulaFunctions))
	for _, name := range formulaVariables {
		env[name] = 0.0
	}
	for name, fn := range formulaFunctions {
		env[name] = fn
	}
	return env
}

type identifierCollector struct {
	found map[string]bool
}

func (c *identifierCollector) Visit(node *ast.Node) {
	if ident, ok := (*node).(*ast.IdentifierNode); ok {
		c.found[ident.Value] = true
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: result has non-numeric type %T", ErrFormula, v)
	}
}
