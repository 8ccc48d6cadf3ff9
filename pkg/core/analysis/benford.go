package analysis

import (
	"math"
	"strconv"

	"ashare_analysis/pkg/models"
)

// benfordExpected is the first-digit frequency under Benford's law.
var benfordExpected = [10]float64{
	0, 0.30103, 0.17609, 0.12494, 0.09691, 0.07918, 0.06695, 0.05799, 0.05115, 0.04576,
}

// benfordMinSample is the smallest value count worth testing; below it the
// deviation statistic is noise.
const benfordMinSample = 30

// BenfordResult reports how closely the statement line items follow the
// expected leading-digit distribution. MAD thresholds follow common audit
// heuristics: above 0.015 nonconforming, above 0.010 marginal.
type BenfordResult struct {
	SampleSize  int         `json:"sample_size"`
	MAD         float64     `json:"mad"`
	Conformity  string      `json:"conformity"`
	Flagged     bool        `json:"flagged"`
	Frequencies [10]float64 `json:"frequencies"`
}

// BenfordCheck runs first-digit analysis over every numeric value in the
// record's three statements. A flagged result is a prompt for manual review,
// not evidence of manipulation on its own.
func (a *Analyzer) BenfordCheck(rec *models.StockRecord) *BenfordResult {
	if rec.FinancialData == nil {
		return &BenfordResult{Conformity: "insufficient data"}
	}

	var counts [10]int
	total := 0
	for _, rows := range [][]models.Row{
		rec.FinancialData.BalanceSheet,
		rec.FinancialData.IncomeStatement,
		rec.FinancialData.CashFlow,
	} {
		for _, row := range rows {
			for _, v := range row {
				f := models.SafeFloat(v)
				if f == nil {
					continue
				}
				if d := leadingDigit(*f); d > 0 {
					counts[d]++
					total++
				}
			}
		}
	}

	res := &BenfordResult{SampleSize: total}
	if total < benfordMinSample {
		res.Conformity = "insufficient data"
		return res
	}

	sumDiff := 0.0
	for d := 1; d <= 9; d++ {
		freq := float64(counts[d]) / float64(total)
		res.Frequencies[d] = freq
		sumDiff += math.Abs(freq - benfordExpected[d])
	}
	res.MAD = sumDiff / 9

	switch {
	case res.MAD > 0.015:
		res.Conformity = "nonconforming"
		res.Flagged = true
	case res.MAD > 0.010:
		res.Conformity = "marginal"
	default:
		res.Conformity = "conforming"
	}
	return res
}

// leadingDigit extracts the first significant digit, 0 when there is none.
// Values below 1 are skipped: per-share and ratio fields dominate there and
// they are not Benford-distributed.
func leadingDigit(v float64) int {
	v = math.Abs(v)
	if v < 1 {
		return 0
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for _, c := range s {
		if c >= '1' && c <= '9' {
			return int(c - '0')
		}
	}
	return 0
}
