// Package sentiment tags news items against small Chinese lexicons. It is a
// transparent keyword counter, not a language model: every score can be
// traced back to the words that produced it.
package sentiment

import (
	"math"
	"sort"
	"strings"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/models"
)

// Risk level labels, shared with the analyzer composite.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// ScoredItem is one news item with its lexicon hits attached.
type ScoredItem struct {
	models.NewsItem

	Score        float64  `json:"sentiment_score"`
	PositiveHits []string `json:"positive_hits,omitempty"`
	NegativeHits []string `json:"negative_hits,omitempty"`
	RiskTags     []string `json:"risk_tags,omitempty"`
}

// Report is the aggregate over one batch of items.
type Report struct {
	NewsCount        int            `json:"news_count"`
	OverallSentiment float64        `json:"overall_sentiment"`
	RiskLevel        string         `json:"risk_level"`
	TagCounts        map[string]int `json:"tag_counts,omitempty"`
	TopNegative      []ScoredItem   `json:"top_negative,omitempty"`
	Items            []ScoredItem   `json:"items"`
}

// Analyzer scores news items against the configured lexicons.
type Analyzer struct {
	pol policy.SentimentPolicy
}

func NewAnalyzer(pol policy.SentimentPolicy) *Analyzer {
	return &Analyzer{pol: pol}
}

// ScoreItem counts lexicon hits in the item's title and maps the net count
// onto [-1,1] with tanh so a pile-up of keywords saturates instead of
// growing without bound.
func (a *Analyzer) ScoreItem(item models.NewsItem) ScoredItem {
	s := ScoredItem{NewsItem: item}
	text := strings.ToLower(item.Title)

	for _, w := range a.pol.Positive {
		if strings.Contains(text, strings.ToLower(w)) {
			s.PositiveHits = append(s.PositiveHits, w)
		}
	}
	for _, w := range a.pol.Negative {
		if strings.Contains(text, strings.ToLower(w)) {
			s.NegativeHits = append(s.NegativeHits, w)
		}
	}
	for _, p := range a.pol.Patterns {
		for _, w := range p.Keywords {
			if strings.Contains(text, strings.ToLower(w)) {
				s.RiskTags = append(s.RiskTags, p.Tag)
				break
			}
		}
	}

	net := float64(len(s.PositiveHits) - len(s.NegativeHits))
	if net != 0 {
		s.Score = math.Tanh(net / a.pol.SaturationDivisor)
	}
	return s
}

// Analyze scores a batch and buckets the aggregate into a risk level. Any hit
// on the severe keyword subset forces the high bucket regardless of how the
// rest of the batch reads.
func (a *Analyzer) Analyze(items []models.NewsItem) *Report {
	rep := &Report{NewsCount: len(items), RiskLevel: RiskLow, TagCounts: map[string]int{}}
	if len(items) == 0 {
		return rep
	}

	severe := false
	var sum float64
	for _, item := range items {
		scored := a.ScoreItem(item)
		rep.Items = append(rep.Items, scored)
		sum += scored.Score
		for _, tag := range scored.RiskTags {
			rep.TagCounts[tag]++
		}
		if !severe {
			severe = a.hasSevere(item.Title)
		}
	}
	rep.OverallSentiment = sum / float64(len(items))

	switch {
	case severe || rep.OverallSentiment <= a.pol.HighThreshold:
		rep.RiskLevel = RiskHigh
	case rep.OverallSentiment <= a.pol.MediumThreshold:
		rep.RiskLevel = RiskMedium
	}

	rep.TopNegative = topNegative(rep.Items, a.pol.TopNegative)
	if len(rep.TagCounts) == 0 {
		rep.TagCounts = nil
	}
	return rep
}

func (a *Analyzer) hasSevere(title string) bool {
	text := strings.ToLower(title)
	for _, w := range a.pol.Severe {
		if strings.Contains(text, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func topNegative(items []ScoredItem, n int) []ScoredItem {
	var neg []ScoredItem
	for _, it := range items {
		if it.Score < 0 {
			neg = append(neg, it)
		}
	}
	sort.SliceStable(neg, func(i, j int) bool { return neg[i].Score < neg[j].Score })
	if len(neg) > n {
		neg = neg[:n]
	}
	return neg
}

// Summarize converts a report into the news section carried on a record.
func (a *Analyzer) Summarize(items []models.NewsItem) *models.NewsSentiment {
	rep := a.Analyze(items)
	return &models.NewsSentiment{
		NewsCount:        rep.NewsCount,
		OverallSentiment: rep.OverallSentiment,
		RiskLevel:        rep.RiskLevel,
	}
}
