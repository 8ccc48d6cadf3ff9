package validate

import (
	"testing"

	"ashare_analysis/pkg/models"
)

func linkedRecord() *models.StockRecord {
	return &models.StockRecord{
		Code: "600036",
		FinancialData: &models.FinancialData{
			BalanceSheet: []models.Row{
				{models.KeyPeriod: "2023-12-31", models.KeyTotalAssets: 11000.0, models.KeyTotalEquity: 1000.0},
			},
			IncomeStatement: []models.Row{
				{models.KeyPeriod: "2023-12-31", models.KeyNetIncome: 146.0},
			},
			CashFlow: []models.Row{
				{models.KeyPeriod: "2023-12-31", models.KeyOCF: 300.0},
			},
		},
		FinancialIndicators: []models.Row{
			{models.KeyPeriod: "2023-12-31", models.KeyNetIncome: 146.5},
		},
	}
}

func TestCheckLinkagePasses(t *testing.T) {
	rep := CheckLinkage(linkedRecord())
	if rep == nil {
		t.Fatal("expected a report")
	}
	if !rep.AllPassed {
		t.Fatalf("failed checks: %v", rep.FailedChecks)
	}
	if rep.Period != "2023-12-31" {
		t.Errorf("period = %q", rep.Period)
	}
	if len(rep.Checks) != 4 {
		t.Errorf("checks = %d, want 4", len(rep.Checks))
	}
}

func TestCheckLinkageEquityExceedsAssets(t *testing.T) {
	rec := linkedRecord()
	rec.FinancialData.BalanceSheet[0][models.KeyTotalAssets] = 900.0

	rep := CheckLinkage(rec)
	if rep.AllPassed {
		t.Fatal("equity above total assets must fail")
	}
	found := false
	for _, name := range rep.FailedChecks {
		if name == "equity_within_assets" {
			found = true
		}
	}
	if !found {
		t.Errorf("failed checks = %v", rep.FailedChecks)
	}
}

func TestCheckLinkagePeriodMisalignment(t *testing.T) {
	rec := linkedRecord()
	rec.FinancialData.CashFlow[0][models.KeyPeriod] = "2023-09-30"

	rep := CheckLinkage(rec)
	if rep.AllPassed {
		t.Fatal("misaligned cash-flow period must fail")
	}
	if len(rep.FailedChecks) != 1 {
		t.Errorf("failed checks = %v, want only the cash-flow alignment", rep.FailedChecks)
	}
}

func TestCheckLinkageNetIncomeDivergence(t *testing.T) {
	rec := linkedRecord()
	// 10% gap between statement and indicator table is beyond rounding.
	rec.FinancialIndicators[0][models.KeyNetIncome] = 161.0

	rep := CheckLinkage(rec)
	if rep.AllPassed {
		t.Fatal("net income divergence must fail")
	}

	// Within 2% it is treated as rounding noise.
	rec.FinancialIndicators[0][models.KeyNetIncome] = 147.0
	if rep := CheckLinkage(rec); !rep.AllPassed {
		t.Errorf("1%% gap flagged: %v", rep.FailedChecks)
	}
}

func TestCheckLinkageNothingToCheck(t *testing.T) {
	if rep := CheckLinkage(&models.StockRecord{}); rep != nil {
		t.Errorf("no financial data: report = %+v", rep)
	}

	rec := &models.StockRecord{
		FinancialData: &models.FinancialData{
			BalanceSheet: []models.Row{{models.KeyPeriod: "2023-12-31"}},
		},
	}
	if rep := CheckLinkage(rec); rep != nil {
		t.Errorf("no comparable values: report = %+v", rep)
	}
}
