package analysis

import (
	"strings"

	"ashare_analysis/pkg/models"
)

// DuPontResult decomposes ROE into net margin × asset turnover × equity
// multiplier, computed from the most recent period's income statement and
// balance sheet. A factor whose denominator is zero or whose inputs are
// missing stays nil, and ROE itself stays nil with it; unavailable is never
// reported as zero or infinity.
type DuPontResult struct {
	ROE              *float64 `json:"roe"`               // percent
	NetMargin        *float64 `json:"net_margin"`        // percent
	AssetTurnover    *float64 `json:"asset_turnover"`    // times
	EquityMultiplier *float64 `json:"equity_multiplier"` // times
	Driver           string   `json:"driver,omitempty"`
}

// DuPont runs the decomposition on the record's latest statement period.
func (a *Analyzer) DuPont(rec *models.StockRecord) *DuPontResult {
	res := &DuPontResult{}
	fd := rec.FinancialData
	if fd == nil || len(fd.IncomeStatement) == 0 || len(fd.BalanceSheet) == 0 {
		return res
	}

	income := fd.IncomeStatement[0]
	balance := fd.BalanceSheet[0]

	netIncome := income.Float(models.KeyNetIncome)
	revenue := income.Float(models.KeyRevenue)
	totalAssets := balance.Float(models.KeyTotalAssets)
	equity := balance.Float(models.KeyTotalEquity, models.KeyEquityAlt)

	if netIncome != nil && revenue != nil && *revenue != 0 {
		res.NetMargin = models.Float64Ptr(*netIncome / *revenue * 100)
	}
	if revenue != nil && totalAssets != nil && *totalAssets != 0 {
		res.AssetTurnover = models.Float64Ptr(*revenue / *totalAssets)
	}
	if totalAssets != nil && equity != nil && *equity != 0 {
		res.EquityMultiplier = models.Float64Ptr(*totalAssets / *equity)
	}

	if res.NetMargin != nil && res.AssetTurnover != nil && res.EquityMultiplier != nil {
		res.ROE = models.Float64Ptr(*res.NetMargin * *res.AssetTurnover * *res.EquityMultiplier)
		res.Driver = dupontDriver(*res.NetMargin, *res.AssetTurnover, *res.EquityMultiplier)
	}
	return res
}

func dupontDriver(netMargin, turnover, multiplier float64) string {
	var drivers []string
	if netMargin > 15 {
		drivers = append(drivers, "high margin")
	}
	if turnover > 1 {
		drivers = append(drivers, "high turnover")
	}
	if multiplier > 2.5 {
		drivers = append(drivers, "high leverage")
	}
	if len(drivers) == 0 {
		return "ROE drivers are balanced"
	}
	return "ROE driven mainly by " + strings.Join(drivers, ", ")
}
