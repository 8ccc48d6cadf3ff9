// Package analysis computes derived financial ratios, DuPont decomposition,
// anomaly findings and the weighted composite score for one stock record.
// All inputs come from the already-materialized record; nothing here performs
// I/O or mutates the record.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/core/validate"
	"ashare_analysis/pkg/models"
)

// Analysis depth levels.
const (
	LevelSummary  = "summary"
	LevelStandard = "standard"
	LevelDeep     = "deep"
)

// indicatorWindow bounds how many indicator periods feed trend analysis.
const indicatorWindow = 8

// SectionResult is one category of the analysis (profitability, solvency,
// operation, growth). Metrics hold nil for values that could not be computed.
type SectionResult struct {
	Category     string              `json:"category"`
	Metrics      map[string]*float64 `json:"metrics"`
	Trend        []string            `json:"trend,omitempty"`
	Risks        []string            `json:"risks,omitempty"`
	Observations []string            `json:"observations,omitempty"`
	Assessment   string              `json:"assessment"`
}

// Summary is the analyzer output for one record.
type Summary struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	AnalysisDate string `json:"analysis_date"`
	Level        string `json:"level"`

	Profitability *SectionResult `json:"profitability"`
	Solvency      *SectionResult `json:"solvency"`
	Growth        *SectionResult `json:"growth"`

	// Standard depth and deeper.
	Operation   *SectionResult     `json:"operation,omitempty"`
	DuPont      *DuPontResult      `json:"dupont,omitempty"`
	Anomalies   *AnomalyReport     `json:"anomalies,omitempty"`
	Performance *PerformanceReport `json:"performance,omitempty"`

	// Deep depth only.
	Historical []models.Row            `json:"historical_indicators,omitempty"`
	Benford    *BenfordResult          `json:"benford,omitempty"`
	Linkage    *validate.LinkageReport `json:"statement_linkage,omitempty"`

	NewsSentiment *models.NewsSentiment `json:"news_sentiment,omitempty"`

	RiskLevel    string `json:"risk_level"`
	Score        int    `json:"score"`
	SummaryTitle string `json:"summary_title"`
}

// Analyzer evaluates stock records against an immutable policy.
type Analyzer struct {
	pol policy.AnalyzerPolicy
}

// New builds an analyzer around the given policy tables.
func New(pol policy.AnalyzerPolicy) *Analyzer {
	return &Analyzer{pol: pol}
}

func (a *Analyzer) indicators(rec *models.StockRecord) []models.Row {
	ind := rec.FinancialIndicators
	if len(ind) > indicatorWindow {
		ind = ind[:indicatorWindow]
	}
	return ind
}

// AnalyzeProfitability reports headline margin/return ratios, the ROE trend
// over the indicator window, and a qualitative assessment.
func (a *Analyzer) AnalyzeProfitability(rec *models.StockRecord) *SectionResult {
	res := &SectionResult{Category: "profitability", Metrics: map[string]*float64{}}

	ind := a.indicators(rec)
	if len(ind) == 0 {
		return res
	}

	latest := ind[0]
	res.Metrics["roe"] = latest.Float(models.KeyROE, models.KeyROEWeighted)
	res.Metrics["roa"] = latest.Float(models.KeyROA)
	res.Metrics["gross_margin"] = latest.Float(models.KeyGrossMargin)
	res.Metrics["net_margin"] = latest.Float(models.KeyNetMargin)

	var roeSeries []float64
	for _, row := range ind {
		if v := row.Float(models.KeyROE, models.KeyROEWeighted); v != nil {
			roeSeries = append(roeSeries, *v)
		}
	}
	if len(roeSeries) >= 2 {
		direction := "declining"
		if roeSeries[0] > roeSeries[len(roeSeries)-1] {
			direction = "rising"
		}
		res.Trend = append(res.Trend, fmt.Sprintf("ROE is %s across recent periods", direction))
	}

	if roe := res.Metrics["roe"]; roe != nil {
		res.Assessment = assessROE(*roe)
	}
	return res
}

func assessROE(roe float64) string {
	switch {
	case roe > 20:
		return "excellent - ROE above 20%, very strong profitability"
	case roe > 15:
		return "good - ROE between 15-20%, strong profitability"
	case roe > 10:
		return "average - ROE between 10-15%, moderate profitability"
	default:
		return "weak - ROE below 10%, profitability needs improvement"
	}
}

// AnalyzeSolvency flags leverage and liquidity risks on the latest period.
func (a *Analyzer) AnalyzeSolvency(rec *models.StockRecord) *SectionResult {
	res := &SectionResult{Category: "solvency", Metrics: map[string]*float64{}}

	ind := a.indicators(rec)
	if len(ind) == 0 {
		return res
	}
	latest := ind[0]

	debt := latest.Float(models.KeyDebtRatio)
	current := latest.Float(models.KeyCurrentRatio)
	quick := latest.Float(models.KeyQuickRatio)
	res.Metrics["debt_ratio"] = debt
	res.Metrics["current_ratio"] = current
	res.Metrics["quick_ratio"] = quick

	if debt != nil && *debt > 70 {
		res.Risks = append(res.Risks, fmt.Sprintf("debt ratio elevated (%.1f%%), repayment pressure worth watching", *debt))
	}
	if current != nil && *current < 1 {
		res.Risks = append(res.Risks, fmt.Sprintf("current ratio low (%.2f), weak short-term solvency", *current))
	}
	if quick != nil && *quick < 0.8 {
		res.Risks = append(res.Risks, fmt.Sprintf("quick ratio low (%.2f), short-term liquidity risk", *quick))
	}

	switch len(res.Risks) {
	case 0:
		res.Assessment = "good - solvency ratios normal, balance sheet solid"
	case 1:
		res.Assessment = "average - one risk indicator present, keep watching"
	default:
		res.Assessment = "weak - multiple risk indicators, heavy repayment pressure"
	}
	return res
}

// AnalyzeOperation reports turnover efficiency observations.
func (a *Analyzer) AnalyzeOperation(rec *models.StockRecord) *SectionResult {
	res := &SectionResult{Category: "operation", Metrics: map[string]*float64{}}

	ind := a.indicators(rec)
	if len(ind) == 0 {
		return res
	}
	latest := ind[0]

	arDays := latest.Float(models.KeyARDays)
	invDays := latest.Float(models.KeyInventoryDays)
	assetTurnover := latest.Float(models.KeyAssetTurnover)

	res.Metrics["ar_turnover"] = latest.Float(models.KeyARTurnover)
	res.Metrics["ar_days"] = arDays
	res.Metrics["inventory_turnover"] = latest.Float(models.KeyInventoryTurnover)
	res.Metrics["inventory_days"] = invDays
	res.Metrics["asset_turnover"] = assetTurnover

	if arDays != nil && *arDays > 90 {
		res.Observations = append(res.Observations, fmt.Sprintf("receivable days long (%.0f days), slow collection", *arDays))
	}
	if invDays != nil && *invDays > 180 {
		res.Observations = append(res.Observations, fmt.Sprintf("inventory days long (%.0f days), stock management worth watching", *invDays))
	}
	if assetTurnover != nil && *assetTurnover < 0.5 {
		res.Observations = append(res.Observations, fmt.Sprintf("asset turnover low (%.2f), poor asset utilization", *assetTurnover))
	}

	if len(res.Observations) == 0 {
		res.Assessment = "good - operating efficiency normal"
	} else {
		res.Assessment = "needs attention - " + joinSemicolon(res.Observations)
	}
	return res
}

// AnalyzeGrowth reports revenue and profit growth, recent and averaged.
func (a *Analyzer) AnalyzeGrowth(rec *models.StockRecord) *SectionResult {
	res := &SectionResult{Category: "growth", Metrics: map[string]*float64{}}

	ind := a.indicators(rec)
	if len(ind) == 0 {
		return res
	}

	var revenueGrowth, profitGrowth []float64
	for _, row := range ind {
		if v := row.Float(models.KeyMainRevenueGrowth, models.KeyRevenueGrowth); v != nil {
			revenueGrowth = append(revenueGrowth, *v)
		}
		if v := row.Float(models.KeyProfitGrowth); v != nil {
			profitGrowth = append(profitGrowth, *v)
		}
	}

	if len(revenueGrowth) > 0 {
		res.Metrics["recent_revenue_growth"] = models.Float64Ptr(revenueGrowth[0])
		res.Metrics["avg_revenue_growth"] = models.Float64Ptr(mean(revenueGrowth))
	}
	if len(profitGrowth) > 0 {
		res.Metrics["recent_profit_growth"] = models.Float64Ptr(profitGrowth[0])
		res.Metrics["avg_profit_growth"] = models.Float64Ptr(mean(profitGrowth))
	}

	for _, series := range []struct {
		values []float64
		name   string
	}{{revenueGrowth, "revenue"}, {profitGrowth, "net profit"}} {
		if t := growthTrend(series.values, series.name); t != "" {
			res.Trend = append(res.Trend, t)
		}
	}

	avg := 0.0
	if v := res.Metrics["avg_profit_growth"]; v != nil {
		avg = *v
	}
	res.Assessment = assessGrowth(avg)
	return res
}

func growthTrend(values []float64, name string) string {
	if len(values) == 0 {
		return ""
	}
	head := values
	if len(head) > 4 {
		head = head[:4]
	}
	allPositive := true
	for _, g := range head {
		if g <= 0 {
			allPositive = false
			break
		}
	}
	if allPositive {
		return name + " growing consistently"
	}
	if values[0] < 0 {
		return name + " shrinking, worth attention"
	}
	return ""
}

func assessGrowth(avg float64) string {
	switch {
	case avg > 20:
		return "high growth - average growth above 20%"
	case avg > 10:
		return "steady growth - average growth 10-20%"
	case avg > 0:
		return "slow growth - average growth 0-10%"
	default:
		return "negative growth - deeper investigation needed"
	}
}

// Summarize runs the full analysis at the requested depth. The record must
// already have passed the data contract.
func (a *Analyzer) Summarize(rec *models.StockRecord, level string) *Summary {
	if level == "" {
		level = LevelStandard
	}

	s := &Summary{
		Code:         rec.Code,
		Name:         rec.BasicInfo.Name,
		AnalysisDate: time.Now().Format(time.RFC3339),
		Level:        level,
	}

	s.Profitability = a.AnalyzeProfitability(rec)
	s.Solvency = a.AnalyzeSolvency(rec)
	s.Growth = a.AnalyzeGrowth(rec)
	anomalies := a.DetectAnomalies(rec)
	performance := a.AnalyzePerformance(rec)
	s.RiskLevel = anomalies.RiskLevel
	s.NewsSentiment = rec.NewsSentiment

	if level != LevelSummary {
		s.Operation = a.AnalyzeOperation(rec)
		s.DuPont = a.DuPont(rec)
		s.Anomalies = anomalies
		s.Performance = performance
	}
	if level == LevelDeep {
		s.Historical = rec.FinancialIndicators
		s.Benford = a.BenfordCheck(rec)
		s.Linkage = validate.CheckLinkage(rec)
	}

	s.Score = a.Score(rec, s.Profitability, s.Solvency, s.Growth, anomalies, performance, rec.NewsSentiment)
	s.SummaryTitle = summaryTitle(s)
	return s
}

func summaryTitle(s *Summary) string {
	var conclusion string
	switch {
	case s.Score >= 80 && s.RiskLevel != RiskHigh:
		conclusion = "solid financials, valuation and risk well matched"
	case s.Score >= 65:
		conclusion = "fundamentals moderately strong, keep tracking"
	default:
		conclusion = "fundamentals or risk signals weak, evaluate with caution"
	}
	return fmt.Sprintf("%s(%s): %s", s.Name, s.Code, conclusion)
}

// Comparison ranks several records by their summary-depth composite score.
type Comparison struct {
	ComparisonDate string            `json:"comparison_date"`
	Stocks         []ComparisonEntry `json:"stocks"`
	Ranking        map[string]int    `json:"ranking"`
}

// ComparisonEntry is one record's headline in a comparison run.
type ComparisonEntry struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	Profitability string `json:"profitability"`
	Solvency      string `json:"solvency"`
	Growth        string `json:"growth"`
	RiskLevel     string `json:"risk_level"`
}

// Compare analyzes each record at summary depth and ranks by score; ties
// break by code ascending.
func (a *Analyzer) Compare(records []*models.StockRecord) *Comparison {
	cmp := &Comparison{
		ComparisonDate: time.Now().Format(time.RFC3339),
		Ranking:        map[string]int{},
	}

	for _, rec := range records {
		s := a.Summarize(rec, LevelSummary)
		cmp.Stocks = append(cmp.Stocks, ComparisonEntry{
			Code:          s.Code,
			Name:          s.Name,
			Score:         s.Score,
			Profitability: s.Profitability.Assessment,
			Solvency:      s.Solvency.Assessment,
			Growth:        s.Growth.Assessment,
			RiskLevel:     s.RiskLevel,
		})
	}

	ranked := make([]ComparisonEntry, len(cmp.Stocks))
	copy(ranked, cmp.Stocks)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Code < ranked[j].Code
	})
	for i, entry := range ranked {
		cmp.Ranking[entry.Code] = i + 1
	}
	return cmp
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func joinSemicolon(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}
