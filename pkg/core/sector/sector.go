// Package sector scores every ticker of a sector universe on one shared
// ladder table and aggregates the results into per-sub-sector statistics and
// a global ranking. One broken ticker is annotated on its entry and excluded
// from the statistics; it never aborts the snapshot.
package sector

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/models"
)

// Member is one ticker handed to the aggregator, either a fetched record or
// the error that prevented fetching it.
type Member struct {
	Code   string
	Record *models.StockRecord
	Err    error
}

// Stock is one scored ticker inside a snapshot.
type Stock struct {
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
	Sector string `json:"sector"`

	PE            *float64 `json:"pe,omitempty"`
	PB            *float64 `json:"pb,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	GrossMargin   *float64 `json:"gross_margin,omitempty"`
	NetMargin     *float64 `json:"net_margin,omitempty"`
	DebtRatio     *float64 `json:"debt_ratio,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`

	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`

	// Percentiles holds the per-metric rank percentile of this ticker over
	// the surviving universe, keyed by metric name.
	Percentiles map[string]float64 `json:"percentiles,omitempty"`

	// Error annotates a ticker that could not be scored.
	Error string `json:"error,omitempty"`
}

// Stats summarizes one sub-sector over its valid members.
type Stats struct {
	Count          int      `json:"count"`
	AvgPE          *float64 `json:"avg_pe,omitempty"`
	AvgROE         *float64 `json:"avg_roe,omitempty"`
	AvgGrossMargin *float64 `json:"avg_gross_margin,omitempty"`
	TotalMarketCap *float64 `json:"total_market_cap,omitempty"`
	Leader         string   `json:"leader,omitempty"`
}

// Snapshot is one full aggregation run.
type Snapshot struct {
	RunID     string              `json:"run_id"`
	FetchTime string              `json:"fetch_time"`
	Sectors   map[string][]*Stock `json:"sectors"`
	Stats     map[string]*Stats   `json:"stats"`
	Ranking   []*Stock            `json:"ranking"`
	Failed    int                 `json:"failed"`
}

// Aggregator scores and aggregates sector universes.
type Aggregator struct {
	pol policy.SectorPolicy
}

func NewAggregator(pol policy.SectorPolicy) *Aggregator {
	return &Aggregator{pol: pol}
}

// Score extracts the scoring metrics from one record and applies the ladder
// table. Missing metrics contribute no delta.
func (a *Aggregator) Score(rec *models.StockRecord) *Stock {
	s := &Stock{Code: rec.Code, Name: rec.BasicInfo.Name, Score: a.pol.BaseScore}

	if len(rec.FinancialIndicators) > 0 {
		latest := rec.FinancialIndicators[0]
		s.ROE = latest.Float(models.KeyROE, models.KeyROEWeighted)
		s.GrossMargin = latest.Float(models.KeyGrossMargin)
		s.NetMargin = latest.Float(models.KeyNetMargin)
		s.DebtRatio = latest.Float(models.KeyDebtRatio)
		s.RevenueGrowth = latest.Float(models.KeyRevenueGrowth, models.KeyMainRevenueGrowth)
	}
	if rec.Valuation != nil {
		s.PE = rec.Valuation.Latest.Float("pe_ttm", "pe")
		s.PB = rec.Valuation.Latest.Float("pb")
		s.MarketCap = rec.Valuation.Latest.Float("total_mv")
	}
	if s.MarketCap == nil {
		s.MarketCap = rec.BasicInfo.TotalMV
	}

	s.apply(a.pol.ROE, s.ROE)
	s.apply(a.pol.GrossMargin, s.GrossMargin)
	s.apply(a.pol.DebtRatio, s.DebtRatio)
	s.apply(a.pol.NetMargin, s.NetMargin)
	s.apply(a.pol.RevenueGrowth, s.RevenueGrowth)
	if s.PE != nil && *s.PE > 0 {
		s.apply(a.pol.PE, s.PE)
	}
	s.Score = policy.Clamp(s.Score)
	return s
}

func (s *Stock) apply(l policy.Ladder, v *float64) {
	if v == nil {
		return
	}
	delta, reason := l.Match(*v)
	s.Score += delta
	if reason != "" {
		s.Reasons = append(s.Reasons, fmt.Sprintf(reason, *v))
	}
}

// Aggregate scores every member, computes sub-sector statistics over the
// valid ones and ranks the whole universe.
func (a *Aggregator) Aggregate(universe map[string][]Member) *Snapshot {
	snap := &Snapshot{
		RunID:     uuid.NewString(),
		FetchTime: time.Now().Format("2006-01-02 15:04:05"),
		Sectors:   map[string][]*Stock{},
		Stats:     map[string]*Stats{},
	}

	var valid []*Stock
	for name, members := range universe {
		for _, m := range members {
			var s *Stock
			if m.Err != nil || m.Record == nil {
				s = &Stock{Code: m.Code, Error: memberError(m)}
				snap.Failed++
			} else {
				s = a.Score(m.Record)
				valid = append(valid, s)
			}
			s.Sector = name
			snap.Sectors[name] = append(snap.Sectors[name], s)
		}
	}

	attachPercentiles(valid)

	for name, stocks := range snap.Sectors {
		snap.Stats[name] = sectorStats(stocks)
	}

	snap.Ranking = append(snap.Ranking, valid...)
	sort.SliceStable(snap.Ranking, func(i, j int) bool {
		if snap.Ranking[i].Score != snap.Ranking[j].Score {
			return snap.Ranking[i].Score > snap.Ranking[j].Score
		}
		return snap.Ranking[i].Code < snap.Ranking[j].Code
	})
	return snap
}

func memberError(m Member) string {
	if m.Err != nil {
		return m.Err.Error()
	}
	return "no data"
}

func sectorStats(stocks []*Stock) *Stats {
	st := &Stats{}
	var peSum, roeSum, gmSum, mvSum float64
	var peN, roeN, gmN, mvN int
	leaderScore := -1.0
	for _, s := range stocks {
		if s.Error != "" {
			continue
		}
		st.Count++
		// Negative PE means losses; it would poison the sector average.
		if s.PE != nil && *s.PE > 0 {
			peSum += *s.PE
			peN++
		}
		if s.ROE != nil {
			roeSum += *s.ROE
			roeN++
		}
		if s.GrossMargin != nil {
			gmSum += *s.GrossMargin
			gmN++
		}
		if s.MarketCap != nil {
			mvSum += *s.MarketCap
			mvN++
		}
		if s.Score > leaderScore || (s.Score == leaderScore && s.Code < st.Leader) {
			leaderScore = s.Score
			st.Leader = s.Code
		}
	}
	if peN > 0 {
		st.AvgPE = models.Float64Ptr(peSum / float64(peN))
	}
	if roeN > 0 {
		st.AvgROE = models.Float64Ptr(roeSum / float64(roeN))
	}
	if gmN > 0 {
		st.AvgGrossMargin = models.Float64Ptr(gmSum / float64(gmN))
	}
	if mvN > 0 {
		st.TotalMarketCap = models.Float64Ptr(mvSum)
	}
	return st
}

// attachPercentiles computes, for each metric, the linear-interpolation rank
// percentile of each surviving ticker over the whole universe.
func attachPercentiles(stocks []*Stock) {
	metrics := map[string]func(*Stock) *float64{
		"pe":           func(s *Stock) *float64 { return s.PE },
		"pb":           func(s *Stock) *float64 { return s.PB },
		"roe":          func(s *Stock) *float64 { return s.ROE },
		"gross_margin": func(s *Stock) *float64 { return s.GrossMargin },
		"market_cap":   func(s *Stock) *float64 { return s.MarketCap },
	}
	for name, get := range metrics {
		var vals []float64
		for _, s := range stocks {
			if v := get(s); v != nil {
				vals = append(vals, *v)
			}
		}
		if len(vals) < 2 {
			continue
		}
		sort.Float64s(vals)
		for _, s := range stocks {
			v := get(s)
			if v == nil {
				continue
			}
			if s.Percentiles == nil {
				s.Percentiles = map[string]float64{}
			}
			s.Percentiles[name] = rankPercentile(vals, *v)
		}
	}
}

// rankPercentile places v on the sorted slice by linear interpolation between
// neighbouring ranks, scaled to [0,100].
func rankPercentile(sorted []float64, v float64) float64 {
	n := len(sorted)
	if v <= sorted[0] {
		return 0
	}
	if v >= sorted[n-1] {
		return 100
	}
	for i := 1; i < n; i++ {
		if v <= sorted[i] {
			frac := 0.0
			if sorted[i] != sorted[i-1] {
				frac = (v - sorted[i-1]) / (sorted[i] - sorted[i-1])
			}
			return (float64(i-1) + frac) / float64(n-1) * 100
		}
	}
	return 100
}
