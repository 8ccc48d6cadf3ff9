// Package screener applies inclusive numeric-range filters over a batch of
// market snapshots and assigns each survivor a composite score from the
// policy breakpoint tables.
package screener

import (
	"sort"

	"ashare_analysis/pkg/core/policy"
)

// Metric names accepted in a filter set. Filtering on an unknown name
// excludes every record, since no record can prove it satisfies the bound.
const (
	MetricPE            = "pe"
	MetricPB            = "pb"
	MetricROE           = "roe"
	MetricDebtRatio     = "debt_ratio"
	MetricDividendYield = "dividend_yield"
	MetricMarketCap     = "market_cap" // 亿元
	MetricPctChange     = "pct_change"
)

// Range is an inclusive numeric bound; a nil side is open-ended.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Filters maps metric name to range.
type Filters map[string]Range

// Candidate is one ticker's market snapshot entering the screen. Pointer
// fields distinguish "metric absent" from zero.
type Candidate struct {
	Code string `json:"code"`
	Name string `json:"name"`

	Close         *float64 `json:"close,omitempty"`
	PctChange     *float64 `json:"pct_chg,omitempty"`
	PETTM         *float64 `json:"pe_ttm,omitempty"`
	PB            *float64 `json:"pb,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"` // 亿元
	DividendYield *float64 `json:"dv_ttm,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	DebtRatio     *float64 `json:"debt_to_assets,omitempty"`
	ProfitGrowth  *float64 `json:"netprofit_yoy,omitempty"`
}

// Metric resolves a filter metric on the candidate; nil when absent.
func (c *Candidate) Metric(name string) *float64 {
	switch name {
	case MetricPE:
		return c.PETTM
	case MetricPB:
		return c.PB
	case MetricROE:
		return c.ROE
	case MetricDebtRatio:
		return c.DebtRatio
	case MetricDividendYield:
		return c.DividendYield
	case MetricMarketCap:
		return c.MarketCap
	case MetricPctChange:
		return c.PctChange
	default:
		return nil
	}
}

// Result is one surviving candidate with its composite score.
type Result struct {
	Candidate
	Score float64 `json:"score"`
}

// SortKey selects the output ordering. Every key breaks ties by ticker code
// ascending so output is deterministic under input permutation.
type SortKey string

const (
	SortByScore     SortKey = "score"
	SortByPE        SortKey = "pe"
	SortByPB        SortKey = "pb"
	SortByMarketCap SortKey = "market_cap"
)

// Engine screens candidate batches against a fixed policy.
type Engine struct {
	pol policy.ScreenerPolicy
}

// New builds an engine around the given policy tables.
func New(pol policy.ScreenerPolicy) *Engine {
	return &Engine{pol: pol}
}

// Passes reports whether the candidate satisfies every filter. A record
// missing a metric that has an active filter fails: absence cannot be
// asserted to satisfy a bound.
func (e *Engine) Passes(c *Candidate, f Filters) bool {
	for name, r := range f {
		v := c.Metric(name)
		if v == nil {
			return false
		}
		if r.Min != nil && *v < *r.Min {
			return false
		}
		if r.Max != nil && *v > *r.Max {
			return false
		}
	}
	return true
}

// Score computes the composite score for one candidate: the policy base
// adjusted by the valuation, profitability, growth, dividend and dip
// ladders, clamped to [0,100]. Missing metrics contribute nothing.
func (e *Engine) Score(c *Candidate) float64 {
	score := e.pol.BaseScore

	if c.PETTM != nil && *c.PETTM > 0 {
		score += e.pol.PE.Delta(*c.PETTM)
	}
	if c.PB != nil && *c.PB > 0 {
		score += e.pol.PB.Delta(*c.PB)
	}
	if c.ROE != nil {
		score += e.pol.ROE.Delta(*c.ROE)
	}
	if c.ProfitGrowth != nil {
		score += e.pol.ProfitGrowth.Delta(*c.ProfitGrowth)
	}
	if c.DividendYield != nil {
		score += e.pol.Dividend.Delta(*c.DividendYield)
	}
	if c.PctChange != nil {
		score += e.pol.PctChange.Delta(*c.PctChange)
	}

	return policy.Clamp(score)
}

// Screen filters and scores the batch, sorts deterministically and truncates
// to topN (non-positive keeps everything).
func (e *Engine) Screen(candidates []Candidate, f Filters, sortBy SortKey, topN int) []Result {
	results := make([]Result, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if !e.Passes(&c, f) {
			continue
		}
		results = append(results, Result{Candidate: c, Score: e.Score(&c)})
	}

	less := resultLess(sortBy)
	sort.SliceStable(results, func(i, j int) bool { return less(&results[i], &results[j]) })

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

func resultLess(key SortKey) func(a, b *Result) bool {
	byCode := func(a, b *Result) bool { return a.Code < b.Code }
	asc := func(av, bv *float64, a, b *Result) bool {
		// Missing values sink to the end.
		if av == nil && bv == nil {
			return byCode(a, b)
		}
		if av == nil {
			return false
		}
		if bv == nil {
			return true
		}
		if *av != *bv {
			return *av < *bv
		}
		return byCode(a, b)
	}

	desc := func(av, bv *float64, a, b *Result) bool {
		if av == nil && bv == nil {
			return byCode(a, b)
		}
		if av == nil {
			return false
		}
		if bv == nil {
			return true
		}
		if *av != *bv {
			return *av > *bv
		}
		return byCode(a, b)
	}

	switch key {
	case SortByPE:
		return func(a, b *Result) bool { return asc(a.PETTM, b.PETTM, a, b) }
	case SortByPB:
		return func(a, b *Result) bool { return asc(a.PB, b.PB, a, b) }
	case SortByMarketCap:
		return func(a, b *Result) bool { return desc(a.MarketCap, b.MarketCap, a, b) }
	default:
		return func(a, b *Result) bool {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return byCode(a, b)
		}
	}
}
