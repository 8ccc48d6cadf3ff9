package valuation

import (
	"fmt"

	"ashare_analysis/pkg/models"
)

// Relative reads the PE/PB percentiles carried on the record and turns them
// into plain-language assessments plus an implied fair price anchored at the
// historical median PE.
func (e *Engine) Relative(rec *models.StockRecord) (*MethodResult, error) {
	res := &MethodResult{
		Method:      MethodRelative,
		Parameters:  map[string]float64{},
		Calculation: map[string]float64{},
		Assessment:  map[string]string{},
	}

	if rec.Valuation == nil {
		err := fmt.Errorf("%w: no valuation section", ErrInsufficientData)
		res.Error = err.Error()
		return res, err
	}

	latest := rec.Valuation.Latest
	pe := latest.Float("pe_ttm", "pe")
	pb := latest.Float("pb")
	pePct := rec.Valuation.PEPercentile
	pbPct := rec.Valuation.PBPercentile

	if pe != nil {
		res.Calculation["pe"] = *pe
	}
	if pb != nil {
		res.Calculation["pb"] = *pb
	}
	if pePct != nil {
		res.Calculation["pe_percentile"] = *pePct
		res.Assessment["pe"] = percentileAssessment(*pePct)
	}
	if pbPct != nil {
		res.Calculation["pb_percentile"] = *pbPct
		res.Assessment["pb"] = percentileAssessment(*pbPct)
	}

	if len(res.Assessment) == 0 {
		err := fmt.Errorf("%w: no valuation percentiles", ErrInsufficientData)
		res.Error = err.Error()
		return res, err
	}

	// Implied fair price: scale the current price so PE lands at its
	// historical median (percentile 50).
	price := currentPrice(rec)
	if price != nil && pe != nil && *pe > 0 && pePct != nil && *pePct > 0 {
		fair := *price * 50 / *pePct
		res.Calculation["fair_price"] = fair
		res.PerShareValue = models.Float64Ptr(fair)
	} else {
		res.Note = "fair price needs a positive PE, PE percentile and current price"
	}
	return res, nil
}

func percentileAssessment(pct float64) string {
	switch {
	case pct < 20:
		return "历史低位，明显低估"
	case pct < 40:
		return "历史偏低，相对低估"
	case pct < 60:
		return "历史中位，估值合理"
	case pct < 80:
		return "历史偏高，相对高估"
	default:
		return "历史高位，明显高估"
	}
}
