package analysis

import (
	"math"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/models"
)

// Score computes the weighted composite: profitability 30%, financial safety
// 20%, growth 25%, valuation 25%, each sub-score on a 0-100 scale from the
// policy curves. The safety sub-score starts at its baseline and loses a
// fixed penalty per anomaly finding and a smaller one per solvency risk.
// News and performance signals apply bounded adjustments after the weighted
// sum; the result is clamped to [0,100].
func (a *Analyzer) Score(rec *models.StockRecord,
	profitability, solvency, growth *SectionResult,
	anomalies *AnomalyReport, performance *PerformanceReport,
	news *models.NewsSentiment) int {

	w := a.pol.Weights

	profitScore := a.pol.NeutralSubScore
	if roe := profitability.Metrics["roe"]; roe != nil {
		profitScore = a.pol.ProfitabilityCurve.Eval(*roe)
	}

	growthScore := a.pol.NeutralSubScore
	if avg := growth.Metrics["avg_profit_growth"]; avg != nil {
		growthScore = a.pol.GrowthCurve.Eval(*avg)
	}

	valuationScore := a.pol.NeutralSubScore
	if pe := recordPE(rec); pe != nil && *pe > 0 {
		valuationScore = a.pol.ValuationCurve.Eval(*pe)
	}

	safetyScore := a.pol.SafetyBaseline
	safetyScore -= a.pol.AnomalyPenalty * float64(len(anomalies.Findings))
	safetyScore -= a.pol.SolvencyPenalty * float64(len(solvency.Risks))
	safetyScore = policy.Clamp(safetyScore)

	score := w.Profitability*profitScore +
		w.Safety*safetyScore +
		w.Growth*growthScore +
		w.Valuation*valuationScore

	if news != nil && news.Error == "" {
		switch news.RiskLevel {
		case RiskHigh:
			score -= a.pol.NewsHighPenalty
		case RiskMedium:
			score -= a.pol.NewsMediumPenalty
		case RiskLow:
			if news.OverallSentiment > a.pol.NewsPositiveFloor {
				score += a.pol.NewsPositiveBonus
			}
		}
	}

	if performance != nil {
		switch performance.Assessment {
		case PerformanceWeak:
			score -= a.pol.PerformanceWeakHit
		case PerformanceStrong:
			score += a.pol.PerformanceStrongGain
		}
	}

	return int(math.Round(policy.Clamp(score)))
}

// recordPE finds the current PE: basic_info first, valuation snapshot second.
func recordPE(rec *models.StockRecord) *float64 {
	if rec.BasicInfo.PETTM != nil {
		return rec.BasicInfo.PETTM
	}
	if rec.Valuation != nil && rec.Valuation.Latest != nil {
		return rec.Valuation.Latest.Float("pe_ttm", "pe")
	}
	return nil
}
