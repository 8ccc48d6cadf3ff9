// Package validate cross-checks the three financial statements of a record
// against each other (勾稽验证). The data contract guarantees shape; this
// package checks that the numbers agree with each other.
package validate

import (
	"fmt"
	"math"

	"ashare_analysis/pkg/models"
)

// relTolerance is the relative difference treated as rounding noise. Provider
// statements mix units and restatements, so the bar is loose.
const relTolerance = 0.02

// LinkageReport holds the cross-statement checks for the latest period.
type LinkageReport struct {
	Period       string   `json:"period"`
	Checks       []Check  `json:"checks"`
	AllPassed    bool     `json:"all_passed"`
	FailedChecks []string `json:"failed_checks,omitempty"`
}

// Check is one comparison between two statement values.
type Check struct {
	Name   string  `json:"name"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Diff   float64 `json:"diff"`
	Passed bool    `json:"passed"`
}

// CheckLinkage verifies the latest period of the record:
//
//   - equity never exceeds total assets (balance sheet identity),
//   - the periods of the three statements line up,
//   - income-statement net income agrees with the indicator table when both
//     report it.
//
// A nil report means there was nothing to check.
func CheckLinkage(rec *models.StockRecord) *LinkageReport {
	if rec.FinancialData == nil {
		return nil
	}
	fd := rec.FinancialData
	if len(fd.BalanceSheet) == 0 && len(fd.IncomeStatement) == 0 {
		return nil
	}

	rep := &LinkageReport{AllPassed: true}

	var balance, income, cash models.Row
	if len(fd.BalanceSheet) > 0 {
		balance = fd.BalanceSheet[0]
		rep.Period = balance.String(models.KeyPeriod)
	}
	if len(fd.IncomeStatement) > 0 {
		income = fd.IncomeStatement[0]
		if rep.Period == "" {
			rep.Period = income.String(models.KeyPeriod)
		}
	}
	if len(fd.CashFlow) > 0 {
		cash = fd.CashFlow[0]
	}

	if balance != nil {
		assets := balance.Float(models.KeyTotalAssets)
		equity := balance.Float(models.KeyTotalEquity, models.KeyEquityAlt)
		if assets != nil && equity != nil {
			rep.add("equity_within_assets", *equity, *assets, *equity <= *assets*(1+relTolerance))
		}
	}

	for _, other := range []struct {
		name string
		row  models.Row
	}{{"income_period_aligned", income}, {"cash_flow_period_aligned", cash}} {
		if other.row == nil || rep.Period == "" {
			continue
		}
		p := other.row.String(models.KeyPeriod)
		if p != "" {
			rep.addNamed(other.name, p == rep.Period, fmt.Sprintf("%s vs %s", p, rep.Period))
		}
	}

	if income != nil && len(rec.FinancialIndicators) > 0 {
		isNI := income.Float(models.KeyNetIncome)
		indNI := rec.FinancialIndicators[0].Float(models.KeyNetIncome)
		if isNI != nil && indNI != nil {
			rep.add("net_income_consistent", *isNI, *indNI, closeEnough(*isNI, *indNI))
		}
	}

	if len(rep.Checks) == 0 {
		return nil
	}
	return rep
}

func closeEnough(a, b float64) bool {
	base := math.Max(math.Abs(a), math.Abs(b))
	if base == 0 {
		return true
	}
	return math.Abs(a-b)/base <= relTolerance
}

func (r *LinkageReport) add(name string, left, right float64, passed bool) {
	r.Checks = append(r.Checks, Check{
		Name: name, Left: left, Right: right, Diff: left - right, Passed: passed,
	})
	if !passed {
		r.AllPassed = false
		r.FailedChecks = append(r.FailedChecks, name)
	}
}

func (r *LinkageReport) addNamed(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed})
	if !passed {
		r.AllPassed = false
		r.FailedChecks = append(r.FailedChecks, name+" ("+detail+")")
	}
}
