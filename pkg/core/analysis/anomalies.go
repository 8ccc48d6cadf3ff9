package analysis

import (
	"fmt"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/models"
)

// Finding severities and risk levels.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Finding is one triggered anomaly check.
type Finding struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// AnomalyReport bundles the findings with the derived risk level.
type AnomalyReport struct {
	Findings  []Finding `json:"findings"`
	RiskLevel string    `json:"risk_level"`
}

// RiskLevelFor derives the risk level from the findings alone: zero findings
// is low, one or two findings without a high is medium, any high-severity
// finding or three or more findings is high. This is a threshold table, not
// a weighted sum.
func RiskLevelFor(findings []Finding) string {
	if len(findings) == 0 {
		return RiskLow
	}
	if len(findings) >= 3 {
		return RiskHigh
	}
	for _, f := range findings {
		if f.Severity == SeverityHigh {
			return RiskHigh
		}
	}
	return RiskMedium
}

// DetectAnomalies runs the six independent checks. Each check tolerates
// missing inputs by not triggering; absence of data is not an anomaly.
func (a *Analyzer) DetectAnomalies(rec *models.StockRecord) *AnomalyReport {
	th := a.pol.Anomalies
	var findings []Finding

	var current, previous models.Row
	if len(rec.FinancialIndicators) > 0 {
		current = rec.FinancialIndicators[0]
	}
	if len(rec.FinancialIndicators) > 1 {
		previous = rec.FinancialIndicators[1]
	}

	revenueGrowth := current.Float(models.KeyRevenueGrowth, models.KeyMainRevenueGrowth)

	// 1. Receivables growing well ahead of revenue.
	if arGrowth := current.Float(models.KeyARGrowth); arGrowth != nil && revenueGrowth != nil &&
		*arGrowth > *revenueGrowth*th.ReceivablesFactor {
		findings = append(findings, Finding{
			Type:        "receivables growth anomaly",
			Description: fmt.Sprintf("receivables growth (%.1f%%) well above revenue growth (%.1f%%)", *arGrowth, *revenueGrowth),
			Severity:    SeverityMedium,
		})
	}

	// 2. Inventory growing well ahead of revenue.
	if invGrowth := current.Float(models.KeyInventoryGrowth); invGrowth != nil && revenueGrowth != nil &&
		*invGrowth > *revenueGrowth*th.InventoryFactor {
		findings = append(findings, Finding{
			Type:        "inventory growth anomaly",
			Description: fmt.Sprintf("inventory growth (%.1f%%) far above revenue growth (%.1f%%)", *invGrowth, *revenueGrowth),
			Severity:    SeverityMedium,
		})
	}

	// 3. Gross margin swinging between periods.
	if gm, prevGM := current.Float(models.KeyGrossMargin), previous.Float(models.KeyGrossMargin); gm != nil && prevGM != nil {
		swing := *gm - *prevGM
		if swing < 0 {
			swing = -swing
		}
		if swing > th.GrossMarginSwing {
			findings = append(findings, Finding{
				Type:        "gross margin volatility",
				Description: fmt.Sprintf("gross margin moved %.1f percentage points, cause worth investigating", swing),
				Severity:    SeverityMedium,
			})
		}
	}

	// 4. Operating cash flow diverging from net income.
	if f := a.cashFlowDivergence(rec, th.OCFNIFloor); f != nil {
		findings = append(findings, *f)
	}

	// 5. Related-party transaction concentration.
	if rec.Holder != nil && rec.Holder.RelatedPartyRatio != nil {
		ratio := *rec.Holder.RelatedPartyRatio
		if ratio > th.RelatedPartyRatio*2 {
			findings = append(findings, Finding{
				Type:        "related-party transactions",
				Description: fmt.Sprintf("related-party transaction ratio very high (%.0f%%)", ratio*100),
				Severity:    SeverityHigh,
			})
		} else if ratio > th.RelatedPartyRatio {
			findings = append(findings, Finding{
				Type:        "related-party transactions",
				Description: fmt.Sprintf("related-party transaction ratio elevated (%.0f%%)", ratio*100),
				Severity:    SeverityMedium,
			})
		}
	}

	// 6. Shareholder reductions and pledges.
	if f := shareholderFinding(rec.Holder, th); f != nil {
		findings = append(findings, *f)
	}

	return &AnomalyReport{Findings: findings, RiskLevel: RiskLevelFor(findings)}
}

func (a *Analyzer) cashFlowDivergence(rec *models.StockRecord, floor float64) *Finding {
	fd := rec.FinancialData
	if fd == nil || len(fd.CashFlow) == 0 || len(fd.IncomeStatement) == 0 {
		return nil
	}
	ocf := fd.CashFlow[0].Float(models.KeyOCF)
	netProfit := fd.IncomeStatement[0].Float(models.KeyNetIncome)
	if ocf == nil || netProfit == nil || *netProfit <= 0 {
		return nil
	}
	ratio := *ocf / *netProfit
	if ratio >= floor {
		return nil
	}
	return &Finding{
		Type:        "cash flow diverging from profit",
		Description: fmt.Sprintf("operating cash flow / net income = %.1f%%, earnings quality questionable", ratio*100),
		Severity:    SeverityHigh,
	}
}

func shareholderFinding(holder *models.Holder, th policy.AnomalyThresholds) *Finding {
	if holder == nil {
		return nil
	}
	if holder.PledgeRatio != nil && *holder.PledgeRatio > th.PledgeRatioHigh {
		return &Finding{
			Type:        "shareholder pledges",
			Description: fmt.Sprintf("controlling-shareholder pledge ratio very high (%.1f%%)", *holder.PledgeRatio),
			Severity:    SeverityHigh,
		}
	}
	if holder.PledgeRatio != nil && *holder.PledgeRatio > th.PledgeRatioMedium {
		return &Finding{
			Type:        "shareholder pledges",
			Description: fmt.Sprintf("shareholder pledge ratio elevated (%.1f%%)", *holder.PledgeRatio),
			Severity:    SeverityMedium,
		}
	}
	if len(holder.Reductions) > 0 {
		return &Finding{
			Type:        "shareholder reductions",
			Description: fmt.Sprintf("%d recent shareholder reduction disclosure(s)", len(holder.Reductions)),
			Severity:    SeverityMedium,
		}
	}
	return nil
}
