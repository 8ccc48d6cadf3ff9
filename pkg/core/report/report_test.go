package report

import (
	"strings"
	"testing"

	"ashare_analysis/pkg/core/analysis"
	"ashare_analysis/pkg/core/sector"
	"ashare_analysis/pkg/core/valuation"
	"ashare_analysis/pkg/models"
)

func TestAnalysisReportResolvesEveryPlaceholder(t *testing.T) {
	s := &analysis.Summary{
		Code: "600519", Name: "贵州茅台",
		AnalysisDate: "2024-06-30T10:00:00+08:00",
		Level:        analysis.LevelStandard,
		Score:        78, RiskLevel: analysis.RiskLow,
		SummaryTitle: "贵州茅台(600519): 基本面稳健",
		Profitability: &analysis.SectionResult{
			Metrics:    map[string]*float64{"roe": models.Float64Ptr(28.5)},
			Assessment: "excellent",
		},
		Solvency: &analysis.SectionResult{Metrics: map[string]*float64{}},
		Growth:   &analysis.SectionResult{Metrics: map[string]*float64{}},
		DuPont: &analysis.DuPontResult{
			ROE:       models.Float64Ptr(28.5),
			NetMargin: models.Float64Ptr(50.1),
		},
		Anomalies: &analysis.AnomalyReport{RiskLevel: analysis.RiskLow},
		NewsSentiment: &models.NewsSentiment{
			NewsCount: 12, OverallSentiment: 0.35, RiskLevel: analysis.RiskLow,
		},
	}

	md := Analysis(s)
	if !Valid(md) {
		t.Fatal("markdown does not parse")
	}
	if strings.Contains(md, "%!") {
		t.Errorf("unresolved format verb in report:\n%s", md)
	}
	for _, want := range []string{"贵州茅台", "28.50", "杜邦分析", "未发现明显异常信号", "舆情概览"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
	// Metrics the analyzer could not compute render as the sentinel.
	if !strings.Contains(md, Unavailable) {
		t.Error("missing metrics must render the unavailable sentinel")
	}
}

func TestAnalysisReportNewsFetchFailure(t *testing.T) {
	s := &analysis.Summary{
		Code: "600519", Name: "贵州茅台", Level: analysis.LevelSummary,
		Profitability: &analysis.SectionResult{Metrics: map[string]*float64{}},
		Solvency:      &analysis.SectionResult{Metrics: map[string]*float64{}},
		Growth:        &analysis.SectionResult{Metrics: map[string]*float64{}},
		NewsSentiment: &models.NewsSentiment{Error: "fetch timeout"},
	}

	md := Analysis(s)
	if !strings.Contains(md, "舆情数据获取失败") || !strings.Contains(md, "fetch timeout") {
		t.Errorf("failure annotation missing:\n%s", md)
	}
}

func TestValuationReportSkipsAndAnnotates(t *testing.T) {
	s := &valuation.Summary{
		Code: "600519", Name: "贵州茅台",
		Methods: map[string]*valuation.MethodResult{
			valuation.MethodDCF: {
				Method:        valuation.MethodDCF,
				PerShareValue: models.Float64Ptr(1850.5),
			},
			valuation.MethodDDM: {
				Method: valuation.MethodDDM,
				Error:  "dividend history too short",
			},
		},
		CurrentPrice: models.Float64Ptr(1700),
		MeanValue:    models.Float64Ptr(1850.5),
		BuyPrice:     models.Float64Ptr(1295.35),
		Judgement:    valuation.JudgementFair,
		Conclusion:   "现价处于合理区间。",
	}

	md := Valuation(s)
	if !Valid(md) {
		t.Fatal("markdown does not parse")
	}
	if !strings.Contains(md, "1850.50元") {
		t.Error("DCF per-share value missing")
	}
	if !strings.Contains(md, "该方法不适用: dividend history too short") {
		t.Error("failed method must be annotated, not dropped")
	}
	// Margin of safety was never computed; the sentinel stands in.
	if !strings.Contains(md, "安全边际: "+Unavailable) {
		t.Error("missing margin must render the sentinel")
	}
}

func TestRenderingIsDeterministic(t *testing.T) {
	summary := &analysis.Summary{
		Code: "600519", Name: "贵州茅台", Level: analysis.LevelStandard,
		Profitability: &analysis.SectionResult{Metrics: map[string]*float64{
			"roe": models.Float64Ptr(28.5), "roa": models.Float64Ptr(20.1),
			"gross_margin": models.Float64Ptr(91.5), "net_margin": models.Float64Ptr(50.2),
		}},
		Solvency: &analysis.SectionResult{Metrics: map[string]*float64{
			"debt_ratio": models.Float64Ptr(22.0), "current_ratio": models.Float64Ptr(3.1),
		}},
		Growth: &analysis.SectionResult{Metrics: map[string]*float64{
			"recent_profit_growth": models.Float64Ptr(19.2), "avg_profit_growth": models.Float64Ptr(17.0),
		}},
	}
	val := &valuation.Summary{
		Code: "600519", Name: "贵州茅台",
		Methods: map[string]*valuation.MethodResult{
			valuation.MethodRelative: {
				Method: valuation.MethodRelative,
				Assessment: map[string]string{
					"pe": "历史偏低，相对低估", "pb": "历史中位，估值合理", "combined": "整体偏低",
				},
			},
		},
	}
	snap := &sector.Snapshot{
		RunID: "run-1",
		Stats: map[string]*sector.Stats{
			"白酒": {Count: 2}, "银行": {Count: 3}, "医药": {Count: 1}, "家电": {Count: 4},
		},
	}

	wantAnalysis := Analysis(summary)
	wantValuation := Valuation(val)
	wantSector := Sector(snap)
	for i := 0; i < 20; i++ {
		if got := Analysis(summary); got != wantAnalysis {
			t.Fatalf("analysis markdown differs between renders (run %d)", i)
		}
		if got := Valuation(val); got != wantValuation {
			t.Fatalf("valuation markdown differs between renders (run %d)", i)
		}
		if got := Sector(snap); got != wantSector {
			t.Fatalf("sector markdown differs between renders (run %d)", i)
		}
	}

	// Sub-sector rows come out sorted by name, not map order.
	idx := func(s string) int { return strings.Index(wantSector, "| "+s+" |") }
	if !(idx("医药") < idx("家电") && idx("家电") < idx("白酒") && idx("白酒") < idx("银行")) {
		t.Errorf("sector rows not in sorted name order:\n%s", wantSector)
	}
}

func TestSectorReportTopTwenty(t *testing.T) {
	snap := &sector.Snapshot{
		RunID:     "run-1",
		FetchTime: "2024-06-30 10:00:00",
		Stats: map[string]*sector.Stats{
			"白酒": {Count: 2, AvgPE: models.Float64Ptr(25.5), Leader: "600519"},
		},
	}
	for i := 0; i < 25; i++ {
		snap.Ranking = append(snap.Ranking, &sector.Stock{
			Code: "600000", Name: "个股", Score: float64(100 - i),
		})
	}

	md := Sector(snap)
	if !Valid(md) {
		t.Fatal("markdown does not parse")
	}
	if !strings.Contains(md, "run-1") || !strings.Contains(md, "25.50") {
		t.Errorf("header or stats missing:\n%s", md)
	}
	if strings.Contains(md, "21.") {
		t.Error("ranking must stop at twenty entries")
	}
	if !strings.Contains(md, "20. ") {
		t.Error("twentieth entry missing")
	}
}
