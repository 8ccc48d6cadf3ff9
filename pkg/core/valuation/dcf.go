package valuation

import (
	"fmt"
	"math"

	"ashare_analysis/pkg/models"
)

// DCFParams configures one discounted-cash-flow run. Rates are percentages
// (10 means 10%). Zero values fall back to the engine policy defaults.
type DCFParams struct {
	DiscountRate   float64
	TerminalGrowth float64
	Horizon        int

	// GrowthOverride pins the projection growth rate instead of estimating
	// it from the record's historical net-profit growth.
	GrowthOverride *float64
}

// ProjectedFCF is one projected year of the DCF schedule.
type ProjectedFCF struct {
	Year         int     `json:"year"`
	FCF          float64 `json:"fcf"`
	PresentValue float64 `json:"pv"`
}

// DiscountedCashFlow is the core two-stage DCF: project baseFCF at growthPct
// for horizon periods, discount at discountPct, and capitalize the terminal
// value with the Gordon-growth formula at terminalPct. Returns the total
// present value and the per-year schedule.
//
// Terminal growth must be strictly below the discount rate; the Gordon
// formula diverges otherwise and the call fails with a *ValuationError.
func DiscountedCashFlow(baseFCF, growthPct, discountPct, terminalPct float64, horizon int) (float64, []ProjectedFCF, error) {
	if discountPct <= 0 {
		return 0, nil, &ValuationError{Method: MethodDCF, Reason: "discount rate must be positive"}
	}
	if terminalPct >= discountPct {
		return 0, nil, &ValuationError{
			Method: MethodDCF,
			Reason: fmt.Sprintf("terminal growth (%.1f%%) must be below discount rate (%.1f%%)", terminalPct, discountPct),
		}
	}
	if horizon <= 0 {
		return 0, nil, &ValuationError{Method: MethodDCF, Reason: "projection horizon must be positive"}
	}

	r := discountPct / 100
	g := growthPct / 100
	tg := terminalPct / 100

	var pvFCF float64
	schedule := make([]ProjectedFCF, 0, horizon)
	for year := 1; year <= horizon; year++ {
		fcf := baseFCF * math.Pow(1+g, float64(year))
		pv := fcf / math.Pow(1+r, float64(year))
		pvFCF += pv
		schedule = append(schedule, ProjectedFCF{Year: year, FCF: fcf, PresentValue: pv})
	}

	terminalFCF := baseFCF * math.Pow(1+g, float64(horizon)) * (1 + tg)
	terminalValue := terminalFCF / (r - tg)
	pvTerminal := terminalValue / math.Pow(1+r, float64(horizon))

	return pvFCF + pvTerminal, schedule, nil
}

// DCF values the record by discounted free cash flow. The base FCF is the
// sum of (operating cash flow − |capex|) over the recent statement periods,
// a simple annualization of quarterly rows; projection growth comes from the
// latest historical net-profit growth clamped to a sane range.
func (e *Engine) DCF(rec *models.StockRecord, p DCFParams) (*MethodResult, error) {
	if p.DiscountRate == 0 {
		p.DiscountRate = e.pol.DiscountRate
	}
	if p.TerminalGrowth == 0 {
		p.TerminalGrowth = e.pol.TerminalGrowth
	}
	if p.Horizon == 0 {
		p.Horizon = e.pol.Horizon
	}

	res := &MethodResult{
		Method: MethodDCF,
		Parameters: map[string]float64{
			"discount_rate":   p.DiscountRate,
			"forecast_years":  float64(p.Horizon),
			"terminal_growth": p.TerminalGrowth,
		},
		Calculation: map[string]float64{},
	}

	baseFCF, err := e.annualFCF(rec)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Calculation["annual_fcf"] = baseFCF

	growth := e.pol.DefaultGrowth
	if p.GrowthOverride != nil {
		growth = *p.GrowthOverride
	} else if g := historicalProfitGrowth(rec); g != nil {
		growth = clamp(*g, 0, e.pol.GrowthClampMax)
	}
	res.Calculation["growth_rate"] = growth
	res.Parameters["growth_rate"] = growth

	total, schedule, err := DiscountedCashFlow(baseFCF, growth, p.DiscountRate, p.TerminalGrowth, p.Horizon)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}

	var pvFCF float64
	for _, row := range schedule {
		pvFCF += row.PresentValue
	}
	res.Calculation["pv_forecast_fcf"] = pvFCF
	res.Calculation["pv_terminal"] = total - pvFCF
	res.IntrinsicValue = models.Float64Ptr(total)

	if shares := totalShares(rec); shares != nil && *shares > 0 {
		res.PerShareValue = models.Float64Ptr(total / *shares)
	} else {
		res.Note = "total share count unavailable, per-share value not computed"
	}
	return res, nil
}

// annualFCF sums OCF − |capex| over the recent cash-flow rows.
func (e *Engine) annualFCF(rec *models.StockRecord) (float64, error) {
	if rec.FinancialData == nil || len(rec.FinancialData.CashFlow) == 0 {
		return 0, fmt.Errorf("%w: no cash-flow statements", ErrInsufficientData)
	}

	rows := rec.FinancialData.CashFlow
	if len(rows) > e.pol.FCFPeriods {
		rows = rows[:e.pol.FCFPeriods]
	}

	var sum float64
	var usable int
	for _, row := range rows {
		ocf := row.Float(models.KeyOCF)
		if ocf == nil {
			continue
		}
		capex := 0.0
		if c := row.Float(models.KeyCapex); c != nil {
			capex = math.Abs(*c)
		}
		sum += *ocf - capex
		usable++
	}
	if usable == 0 {
		return 0, fmt.Errorf("%w: free cash flow not derivable from cash-flow rows", ErrInsufficientData)
	}
	return sum, nil
}

// historicalProfitGrowth reads the latest net-profit growth rate, discarding
// outliers beyond (−50%, 100%).
func historicalProfitGrowth(rec *models.StockRecord) *float64 {
	if len(rec.FinancialIndicators) == 0 {
		return nil
	}
	g := rec.FinancialIndicators[0].Float(models.KeyProfitGrowth)
	if g == nil || *g <= -50 || *g >= 100 {
		return nil
	}
	return g
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
