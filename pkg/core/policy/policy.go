// Package policy holds every fixed scoring constant as immutable
// configuration: breakpoint ladders, composite weights, anomaly thresholds,
// valuation defaults and the sentiment lexicons. Engines receive a Policy at
// construction; nothing in this repository reads scoring constants from
// package-level mutable state.
//
// The built-in tables reproduce the thresholds of the original screening and
// analysis scripts verbatim. What counts as "undervalued" is domain policy,
// so overrides load from a file rather than being re-derived.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	yaml "gopkg.in/yaml.v2"
)

// Band is one step of a score ladder: a half-open interval [Min, Max) with
// the delta applied when the value falls inside. A nil bound is open-ended.
type Band struct {
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Delta  float64  `json:"delta" yaml:"delta"`
	Reason string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (b Band) contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v >= *b.Max {
		return false
	}
	return true
}

// Ladder is an ordered list of bands; the first matching band wins.
type Ladder []Band

// Delta returns the delta of the first band containing v, or 0.
func (l Ladder) Delta(v float64) float64 {
	d, _ := l.Match(v)
	return d
}

// Match returns the delta and reason template of the first band containing v.
func (l Ladder) Match(v float64) (float64, string) {
	for _, b := range l {
		if b.contains(v) {
			return b.Delta, b.Reason
		}
	}
	return 0, ""
}

// Point is one anchor of a piecewise-linear curve.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve maps a metric onto a 0-100 sub-score by linear interpolation between
// anchors, clamped at both ends. Anchors need not be pre-sorted.
type Curve []Point

// Eval interpolates the curve at x.
func (c Curve) Eval(x float64) float64 {
	if len(c) == 0 {
		return 0
	}
	pts := make([]Point, len(c))
	copy(pts, c)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	if x <= pts[0].X {
		return pts[0].Y
	}
	last := pts[len(pts)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].X {
			a, b := pts[i-1], pts[i]
			frac := (x - a.X) / (b.X - a.X)
			return a.Y + frac*(b.Y-a.Y)
		}
	}
	return last.Y
}

// ScreenerPolicy holds the screening composite-score ladders. Deltas apply to
// the base score; the result is clamped to [0,100].
type ScreenerPolicy struct {
	BaseScore float64 `json:"base_score" yaml:"base_score"`

	// Valuation favorability. PE and PB ladders only apply to positive values.
	PE Ladder `json:"pe" yaml:"pe"`
	PB Ladder `json:"pb" yaml:"pb"`

	// Profitability, growth, dividend yield and the contrarian dip bonus.
	ROE          Ladder `json:"roe" yaml:"roe"`
	ProfitGrowth Ladder `json:"profit_growth" yaml:"profit_growth"`
	Dividend     Ladder `json:"dividend" yaml:"dividend"`
	PctChange    Ladder `json:"pct_change" yaml:"pct_change"`
}

// Weights splits the analyzer composite across its four sub-scores.
type Weights struct {
	Profitability float64 `json:"profitability" yaml:"profitability"`
	Safety        float64 `json:"safety" yaml:"safety"`
	Growth        float64 `json:"growth" yaml:"growth"`
	Valuation     float64 `json:"valuation" yaml:"valuation"`
}

// AnomalyThresholds parameterize the six anomaly checks.
type AnomalyThresholds struct {
	ReceivablesFactor float64 `json:"receivables_factor" yaml:"receivables_factor"` // AR growth vs revenue growth
	InventoryFactor   float64 `json:"inventory_factor" yaml:"inventory_factor"`     // inventory growth vs revenue growth
	GrossMarginSwing  float64 `json:"gross_margin_swing" yaml:"gross_margin_swing"` // percentage points
	OCFNIFloor        float64 `json:"ocf_ni_floor" yaml:"ocf_ni_floor"`             // OCF / net income
	RelatedPartyRatio float64 `json:"related_party_ratio" yaml:"related_party_ratio"`
	PledgeRatioMedium float64 `json:"pledge_ratio_medium" yaml:"pledge_ratio_medium"` // percent
	PledgeRatioHigh   float64 `json:"pledge_ratio_high" yaml:"pledge_ratio_high"`     // percent
}

// AnalyzerPolicy holds the financial-analyzer composite tables.
type AnalyzerPolicy struct {
	Weights Weights `json:"weights" yaml:"weights"`

	ProfitabilityCurve Curve `json:"profitability_curve" yaml:"profitability_curve"` // x: ROE %
	GrowthCurve        Curve `json:"growth_curve" yaml:"growth_curve"`               // x: avg net-profit growth %
	ValuationCurve     Curve `json:"valuation_curve" yaml:"valuation_curve"`         // x: PE (TTM)

	SafetyBaseline        float64 `json:"safety_baseline" yaml:"safety_baseline"`
	AnomalyPenalty        float64 `json:"anomaly_penalty" yaml:"anomaly_penalty"`
	SolvencyPenalty       float64 `json:"solvency_penalty" yaml:"solvency_penalty"`
	NeutralSubScore       float64 `json:"neutral_sub_score" yaml:"neutral_sub_score"`
	NewsHighPenalty       float64 `json:"news_high_penalty" yaml:"news_high_penalty"`
	NewsMediumPenalty     float64 `json:"news_medium_penalty" yaml:"news_medium_penalty"`
	NewsPositiveBonus     float64 `json:"news_positive_bonus" yaml:"news_positive_bonus"`
	NewsPositiveFloor     float64 `json:"news_positive_floor" yaml:"news_positive_floor"`
	PerformanceWeakHit    float64 `json:"performance_weak_hit" yaml:"performance_weak_hit"`
	PerformanceStrongGain float64 `json:"performance_strong_gain" yaml:"performance_strong_gain"`

	Anomalies AnomalyThresholds `json:"anomalies" yaml:"anomalies"`
}

// ValuationPolicy holds the valuation defaults. Rates are percentages, as on
// the CLI surface (10 means 10%).
type ValuationPolicy struct {
	DiscountRate   float64 `json:"discount_rate" yaml:"discount_rate"`
	TerminalGrowth float64 `json:"terminal_growth" yaml:"terminal_growth"`
	Horizon        int     `json:"horizon" yaml:"horizon"`
	MarginOfSafety float64 `json:"margin_of_safety" yaml:"margin_of_safety"`
	RequiredReturn float64 `json:"required_return" yaml:"required_return"`

	DefaultGrowth  float64 `json:"default_growth" yaml:"default_growth"`
	GrowthClampMax float64 `json:"growth_clamp_max" yaml:"growth_clamp_max"`
	FCFPeriods     int     `json:"fcf_periods" yaml:"fcf_periods"`
	DividendYears  int     `json:"dividend_years" yaml:"dividend_years"`

	// JudgementBand is the ±fraction around average intrinsic value inside
	// which a price is judged "fair".
	JudgementBand float64 `json:"judgement_band" yaml:"judgement_band"`
}

// SectorPolicy holds the sector scoring table. Reasons are Sprintf templates
// receiving the metric value.
type SectorPolicy struct {
	BaseScore     float64 `json:"base_score" yaml:"base_score"`
	ROE           Ladder  `json:"roe" yaml:"roe"`
	GrossMargin   Ladder  `json:"gross_margin" yaml:"gross_margin"`
	DebtRatio     Ladder  `json:"debt_ratio" yaml:"debt_ratio"`
	PE            Ladder  `json:"pe" yaml:"pe"`
	NetMargin     Ladder  `json:"net_margin" yaml:"net_margin"`
	RevenueGrowth Ladder  `json:"revenue_growth" yaml:"revenue_growth"`
}

// RiskPattern is one named group of risk keywords.
type RiskPattern struct {
	Tag      string   `json:"tag" yaml:"tag"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// SentimentPolicy holds the lexicons and bucket thresholds.
type SentimentPolicy struct {
	Positive []string      `json:"positive" yaml:"positive"`
	Negative []string      `json:"negative" yaml:"negative"`
	Patterns []RiskPattern `json:"patterns" yaml:"patterns"`

	// Severe keywords force the high risk bucket regardless of the aggregate.
	Severe []string `json:"severe" yaml:"severe"`

	// Aggregate score at or below HighThreshold buckets high, at or below
	// MediumThreshold buckets medium, otherwise low.
	HighThreshold   float64 `json:"high_threshold" yaml:"high_threshold"`
	MediumThreshold float64 `json:"medium_threshold" yaml:"medium_threshold"`

	// SaturationDivisor feeds tanh(net / divisor) when scoring one item.
	SaturationDivisor float64 `json:"saturation_divisor" yaml:"saturation_divisor"`

	TopNegative int `json:"top_negative" yaml:"top_negative"`
}

// Policy bundles every table.
type Policy struct {
	Screener  ScreenerPolicy  `json:"screener" yaml:"screener"`
	Analyzer  AnalyzerPolicy  `json:"analyzer" yaml:"analyzer"`
	Valuation ValuationPolicy `json:"valuation" yaml:"valuation"`
	Sector    SectorPolicy    `json:"sector" yaml:"sector"`
	Sentiment SentimentPolicy `json:"sentiment" yaml:"sentiment"`
}

func f(v float64) *float64 { return &v }

// Default returns the built-in tables.
func Default() *Policy {
	return &Policy{
		Screener: ScreenerPolicy{
			BaseScore: 50,
			PE: Ladder{
				{Max: f(10), Delta: 15},
				{Max: f(15), Delta: 10},
				{Max: f(20), Delta: 5},
				{Min: f(50), Delta: -10},
			},
			PB: Ladder{
				{Min: f(0.5), Max: f(1.5), Delta: 10},
				{Min: f(1.5), Max: f(3), Delta: 5},
				{Min: f(5), Delta: -5},
			},
			ROE: Ladder{
				{Min: f(20), Delta: 15},
				{Min: f(15), Delta: 10},
				{Min: f(10), Delta: 5},
				{Max: f(5), Delta: -5},
			},
			ProfitGrowth: Ladder{
				{Min: f(20), Delta: 8},
				{Min: f(10), Delta: 5},
				{Max: f(0), Delta: -5},
			},
			Dividend: Ladder{
				{Min: f(6), Delta: 8},
				{Min: f(4), Delta: 5},
				{Min: f(2), Delta: 3},
			},
			PctChange: Ladder{
				{Max: f(-5), Delta: 5},
				{Min: f(-5), Max: f(0), Delta: 3},
			},
		},
		Analyzer: AnalyzerPolicy{
			Weights: Weights{Profitability: 0.30, Safety: 0.20, Growth: 0.25, Valuation: 0.25},
			ProfitabilityCurve: Curve{
				{X: 0, Y: 30}, {X: 5, Y: 45}, {X: 10, Y: 60},
				{X: 15, Y: 75}, {X: 20, Y: 90}, {X: 30, Y: 100},
			},
			GrowthCurve: Curve{
				{X: -20, Y: 10}, {X: 0, Y: 40}, {X: 10, Y: 60},
				{X: 20, Y: 80}, {X: 40, Y: 100},
			},
			ValuationCurve: Curve{
				{X: 5, Y: 95}, {X: 10, Y: 85}, {X: 15, Y: 70}, {X: 20, Y: 60},
				{X: 30, Y: 45}, {X: 50, Y: 25}, {X: 100, Y: 10},
			},
			SafetyBaseline:        80,
			AnomalyPenalty:        10,
			SolvencyPenalty:       5,
			NeutralSubScore:       50,
			NewsHighPenalty:       8,
			NewsMediumPenalty:     4,
			NewsPositiveBonus:     2,
			NewsPositiveFloor:     0.2,
			PerformanceWeakHit:    8,
			PerformanceStrongGain: 4,
			Anomalies: AnomalyThresholds{
				ReceivablesFactor: 1.5,
				InventoryFactor:   2.0,
				GrossMarginSwing:  10,
				OCFNIFloor:        0.5,
				RelatedPartyRatio: 0.3,
				PledgeRatioMedium: 30,
				PledgeRatioHigh:   60,
			},
		},
		Valuation: ValuationPolicy{
			DiscountRate:   10,
			TerminalGrowth: 3,
			Horizon:        5,
			MarginOfSafety: 30,
			RequiredReturn: 10,
			DefaultGrowth:  10,
			GrowthClampMax: 30,
			FCFPeriods:     4,
			DividendYears:  5,
			JudgementBand:  0.10,
		},
		Sector: SectorPolicy{
			BaseScore: 60,
			ROE: Ladder{
				{Min: f(20), Delta: 15, Reason: "ROE优秀(%.1f%%)"},
				{Min: f(10), Delta: 8},
				{Max: f(0), Delta: -10, Reason: "ROE为负(%.1f%%)"},
			},
			GrossMargin: Ladder{
				{Min: f(40), Delta: 10, Reason: "毛利率高(%.1f%%)"},
				{Min: f(20), Delta: 5},
				{Max: f(10), Delta: -5, Reason: "毛利率低(%.1f%%)"},
			},
			DebtRatio: Ladder{
				{Min: f(70), Delta: -10, Reason: "负债率高(%.1f%%)"},
				{Max: f(30), Delta: 5},
			},
			PE: Ladder{
				{Max: f(30), Delta: 10},
				{Max: f(50), Delta: 5},
				{Min: f(100), Delta: -5, Reason: "PE较高(%.0fx)"},
			},
			NetMargin: Ladder{
				{Min: f(20), Delta: 10, Reason: "净利率高(%.1f%%)"},
				{Max: f(0), Delta: -15, Reason: "净利率为负(%.1f%%)"},
			},
			RevenueGrowth: Ladder{
				{Min: f(50), Delta: 10, Reason: "营收高增长(%.0f%%)"},
				{Max: f(0), Delta: -5},
			},
		},
		Sentiment: SentimentPolicy{
			Positive: []string{
				"增长", "创新高", "突破", "上调", "增持", "回购", "中标", "利好", "超预期", "改善",
			},
			Negative: []string{
				"下滑", "亏损", "暴跌", "诉讼", "减持", "处罚", "调查", "违约", "停产", "利空", "风险",
			},
			Patterns: []RiskPattern{
				{Tag: "监管", Keywords: []string{"处罚", "调查", "问询", "立案", "监管"}},
				{Tag: "诉讼", Keywords: []string{"诉讼", "仲裁", "索赔"}},
				{Tag: "经营", Keywords: []string{"亏损", "下滑", "违约", "停产", "裁员"}},
				{Tag: "股东行为", Keywords: []string{"减持", "质押", "冻结"}},
			},
			Severe:            []string{"立案", "退市", "造假", "欺诈", "违约"},
			HighThreshold:     -0.3,
			MediumThreshold:   -0.1,
			SaturationDivisor: 3,
			TopNegative:       5,
		},
	}
}

// LoadHJSON overlays an Hjson policy file onto the defaults. Hjson allows
// comments and unquoted keys, which suits hand-maintained policy files.
func LoadHJSON(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	pol := Default()
	if err := hjson.Unmarshal(data, pol); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return pol, nil
}

// LoadYAML overlays a YAML policy file onto the defaults.
func LoadYAML(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	pol := Default()
	if err := yaml.Unmarshal(data, pol); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return pol, nil
}

// LoadFile dispatches on the file extension: .yaml/.yml load as YAML,
// everything else as Hjson (which also accepts plain JSON). An empty path
// returns the defaults.
func LoadFile(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadHJSON(path)
	}
}

// Clamp bounds a score to [0, 100].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
