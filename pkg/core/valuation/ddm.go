package valuation

import (
	"fmt"
	"math"

	"ashare_analysis/pkg/models"
)

// DDMParams configures one dividend-discount run. Rates are percentages.
type DDMParams struct {
	RequiredReturn float64

	// DividendGrowth pins the growth rate; when nil it is estimated as the
	// compound growth of the recent dividend history.
	DividendGrowth *float64
}

// DDM values the record with the Gordon dividend-discount model. It needs at
// least two positive dividends in the recent history to estimate growth, and
// the growth rate must stay below the required return.
func (e *Engine) DDM(rec *models.StockRecord, p DDMParams) (*MethodResult, error) {
	if p.RequiredReturn == 0 {
		p.RequiredReturn = e.pol.RequiredReturn
	}

	res := &MethodResult{
		Method:      MethodDDM,
		Parameters:  map[string]float64{"required_return": p.RequiredReturn},
		Calculation: map[string]float64{},
	}

	dividends := recentDividends(rec, e.pol.DividendYears)
	if len(dividends) == 0 {
		err := fmt.Errorf("%w: no dividend history", ErrInsufficientData)
		res.Error = err.Error()
		res.Note = "company pays little or unstable dividends, DDM not applicable"
		return res, err
	}
	if len(dividends) < 2 {
		err := fmt.Errorf("%w: dividend history too short to estimate growth", ErrInsufficientData)
		res.Error = err.Error()
		return res, err
	}

	current := dividends[0]
	res.Calculation["current_dividend"] = current

	growth := 0.0
	if p.DividendGrowth != nil {
		growth = *p.DividendGrowth
	} else {
		years := float64(len(dividends) - 1)
		growth = (math.Pow(current/dividends[len(dividends)-1], 1/years) - 1) * 100
	}
	// Keep the perpetual growth assumption conservative: non-negative and
	// at least one point below the required return.
	growth = clamp(growth, 0, p.RequiredReturn-1)
	res.Parameters["dividend_growth"] = growth
	res.Calculation["dividend_growth"] = growth

	r := p.RequiredReturn / 100
	g := growth / 100
	if r <= g {
		verr := &ValuationError{Method: MethodDDM, Reason: "dividend growth must stay below required return"}
		res.Error = verr.Error()
		return res, verr
	}

	d1 := current * (1 + g)
	perShare := d1 / (r - g)
	res.Calculation["next_dividend"] = d1
	res.PerShareValue = models.Float64Ptr(perShare)

	if shares := totalShares(rec); shares != nil && *shares > 0 {
		res.IntrinsicValue = models.Float64Ptr(perShare * *shares)
	}
	return res, nil
}

// recentDividends collects the positive per-share dividends from the recent
// history, most recent first.
func recentDividends(rec *models.StockRecord, window int) []float64 {
	if rec.Dividend == nil {
		return nil
	}
	rows := rec.Dividend.History
	if len(rows) > window {
		rows = rows[:window]
	}
	var out []float64
	for _, row := range rows {
		if d := row.Float(models.KeyDividendPerShare, models.KeyDividendAlt); d != nil && *d > 0 {
			out = append(out, *d)
		}
	}
	return out
}
