package sentiment

import (
	"fmt"
	"math"
	"testing"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/models"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(policy.Default().Sentiment)
}

func item(title string) models.NewsItem {
	return models.NewsItem{Title: title}
}

func TestScoreItemHitsAndTanh(t *testing.T) {
	a := newTestAnalyzer()

	s := a.ScoreItem(item("三季度净利润增长30%，股价创新高"))
	if len(s.PositiveHits) != 2 || len(s.NegativeHits) != 0 {
		t.Fatalf("hits = +%v -%v, want two positive", s.PositiveHits, s.NegativeHits)
	}
	want := math.Tanh(2.0 / 3)
	if math.Abs(s.Score-want) > 1e-9 {
		t.Errorf("score = %v, want tanh(2/3) = %v", s.Score, want)
	}

	s = a.ScoreItem(item("公司公告：业绩下滑，面临诉讼与处罚"))
	if len(s.NegativeHits) != 3 {
		t.Fatalf("negative hits = %v, want 3", s.NegativeHits)
	}
	if s.Score >= 0 || s.Score <= -1 {
		t.Errorf("score = %v, want in (-1, 0)", s.Score)
	}
}

func TestScoreItemNeutralTitle(t *testing.T) {
	a := newTestAnalyzer()
	s := a.ScoreItem(item("公司发布年度报告"))
	if s.Score != 0 || s.PositiveHits != nil || s.NegativeHits != nil {
		t.Errorf("neutral title must score exactly zero: %+v", s)
	}
}

func TestScoreItemSaturates(t *testing.T) {
	a := newTestAnalyzer()
	s := a.ScoreItem(item("增长创新高突破上调增持回购中标利好超预期改善"))
	if s.Score <= 0 || s.Score >= 1 {
		t.Errorf("score = %v, want inside (0, 1) even with every keyword present", s.Score)
	}
}

func TestScoreItemRiskTags(t *testing.T) {
	a := newTestAnalyzer()
	s := a.ScoreItem(item("公司因信息披露问题被调查，大股东同步减持"))
	tags := map[string]bool{}
	for _, tag := range s.RiskTags {
		tags[tag] = true
	}
	if !tags["监管"] || !tags["股东行为"] {
		t.Errorf("risk tags = %v, want 监管 and 股东行为", s.RiskTags)
	}
}

func TestAnalyzeMostlyPositiveBatch(t *testing.T) {
	a := newTestAnalyzer()
	var items []models.NewsItem
	for i := 0; i < 7; i++ {
		items = append(items, item(fmt.Sprintf("第%d条：业绩增长超预期", i)))
	}
	for i := 0; i < 3; i++ {
		items = append(items, item(fmt.Sprintf("第%d条：短期业绩存在下滑风险", i)))
	}

	rep := a.Analyze(items)
	if rep.NewsCount != 10 {
		t.Fatalf("news count = %d", rep.NewsCount)
	}
	if rep.OverallSentiment <= 0 || rep.OverallSentiment >= 1 {
		t.Errorf("overall = %v, want in (0, 1)", rep.OverallSentiment)
	}
	if rep.RiskLevel != RiskLow {
		t.Errorf("risk = %s, want low", rep.RiskLevel)
	}
}

func TestAnalyzeSevereKeywordForcesHigh(t *testing.T) {
	a := newTestAnalyzer()
	items := []models.NewsItem{
		item("业绩增长超预期"),
		item("再创新高，获机构增持"),
		item("公司被证监会立案"),
	}

	rep := a.Analyze(items)
	if rep.RiskLevel != RiskHigh {
		t.Errorf("risk = %s, want high despite positive aggregate %v",
			rep.RiskLevel, rep.OverallSentiment)
	}
}

func TestAnalyzeThresholdBuckets(t *testing.T) {
	a := newTestAnalyzer()

	// One mildly negative item in three: aggregate ≈ -0.107, medium bucket.
	rep := a.Analyze([]models.NewsItem{
		item("公司发布年度报告"),
		item("公司发布经营数据"),
		item("业绩下滑"),
	})
	if rep.RiskLevel != RiskMedium {
		t.Errorf("risk = %s (overall %v), want medium", rep.RiskLevel, rep.OverallSentiment)
	}

	// All items clearly negative pushes below the high threshold.
	rep = a.Analyze([]models.NewsItem{
		item("业绩下滑，出现亏损"),
		item("股价暴跌，面临处罚"),
	})
	if rep.RiskLevel != RiskHigh {
		t.Errorf("risk = %s (overall %v), want high", rep.RiskLevel, rep.OverallSentiment)
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	a := newTestAnalyzer()
	rep := a.Analyze(nil)
	if rep.NewsCount != 0 || rep.OverallSentiment != 0 || rep.RiskLevel != RiskLow {
		t.Errorf("empty batch report = %+v", rep)
	}
}

func TestTopNegativeCapAndOrder(t *testing.T) {
	a := newTestAnalyzer()
	var items []models.NewsItem
	// Seven negative items of increasing badness, plus one positive.
	items = append(items, item("业绩增长"))
	for i := 0; i < 6; i++ {
		items = append(items, item(fmt.Sprintf("第%d条：业绩下滑", i)))
	}
	items = append(items, item("最差一条：下滑亏损暴跌"))

	rep := a.Analyze(items)
	if len(rep.TopNegative) != 5 {
		t.Fatalf("top negative = %d items, want capped at 5", len(rep.TopNegative))
	}
	worst := rep.TopNegative[0]
	if worst.Title != "最差一条：下滑亏损暴跌" {
		t.Errorf("worst item = %q, want the three-keyword title first", worst.Title)
	}
	for _, it := range rep.TopNegative {
		if it.Score >= 0 {
			t.Errorf("non-negative item %q in top negative list", it.Title)
		}
	}
}

func TestSummarizeCarriesAggregate(t *testing.T) {
	a := newTestAnalyzer()
	ns := a.Summarize([]models.NewsItem{item("公司被证监会立案"), item("业绩下滑")})
	if ns.NewsCount != 2 {
		t.Errorf("news count = %d", ns.NewsCount)
	}
	if ns.RiskLevel != RiskHigh {
		t.Errorf("risk = %s, want high", ns.RiskLevel)
	}
	if ns.Error != "" {
		t.Errorf("unexpected error annotation %q", ns.Error)
	}
}
