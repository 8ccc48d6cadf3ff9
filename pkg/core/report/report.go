// Package report renders analysis, valuation and sector results as Markdown.
// Every placeholder resolves: values that could not be computed render as a
// fixed "暂无数据" sentinel rather than being dropped or zeroed.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"ashare_analysis/pkg/core/analysis"
	"ashare_analysis/pkg/core/sector"
	"ashare_analysis/pkg/core/valuation"
)

// Unavailable is the sentinel printed for any metric that could not be
// computed.
const Unavailable = "暂无数据"

func num(v *float64, format string) string {
	if v == nil {
		return Unavailable
	}
	return fmt.Sprintf(format, *v)
}

func pct(v *float64) string  { return num(v, "%.2f%%") }
func f2(v *float64) string   { return num(v, "%.2f") }
func yuan(v *float64) string { return num(v, "%.2f元") }

// Valid reports whether the Markdown parses. Goldmark is permissive, so this
// is a structural sanity check, not a linter.
func Valid(markdown string) bool {
	parser := goldmark.DefaultParser()
	return parser.Parse(text.NewReader([]byte(markdown))) != nil
}

// Analysis renders one analyzer summary.
func Analysis(s *analysis.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s(%s) 财务分析报告\n\n", s.Name, s.Code)
	fmt.Fprintf(&b, "- 分析时间: %s\n", s.AnalysisDate)
	fmt.Fprintf(&b, "- 分析深度: %s\n", s.Level)
	fmt.Fprintf(&b, "- 综合评分: %d\n", s.Score)
	fmt.Fprintf(&b, "- 风险等级: %s\n\n", s.RiskLevel)
	fmt.Fprintf(&b, "**%s**\n\n", s.SummaryTitle)

	section(&b, "盈利能力", s.Profitability, []metricLabel{
		{"roe", "净资产收益率"}, {"roa", "总资产报酬率"},
		{"gross_margin", "毛利率"}, {"net_margin", "净利率"},
	})
	section(&b, "偿债能力", s.Solvency, []metricLabel{
		{"debt_ratio", "资产负债率"}, {"current_ratio", "流动比率"}, {"quick_ratio", "速动比率"},
	})
	section(&b, "成长能力", s.Growth, []metricLabel{
		{"recent_revenue_growth", "最近营收增速"}, {"avg_revenue_growth", "平均营收增速"},
		{"recent_profit_growth", "最近利润增速"}, {"avg_profit_growth", "平均利润增速"},
	})
	if s.Operation != nil {
		section(&b, "营运能力", s.Operation, []metricLabel{
			{"ar_days", "应收账款周转天数"}, {"inventory_days", "存货周转天数"}, {"asset_turnover", "总资产周转率"},
		})
	}

	if s.DuPont != nil {
		b.WriteString("## 杜邦分析\n\n")
		fmt.Fprintf(&b, "| ROE | 净利率 | 总资产周转率 | 权益乘数 |\n|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n",
			pct(s.DuPont.ROE), pct(s.DuPont.NetMargin), f2(s.DuPont.AssetTurnover), f2(s.DuPont.EquityMultiplier))
		if s.DuPont.Driver != "" {
			fmt.Fprintf(&b, "主要驱动: %s\n\n", s.DuPont.Driver)
		}
	}

	if s.Anomalies != nil {
		b.WriteString("## 财务异常信号\n\n")
		if len(s.Anomalies.Findings) == 0 {
			b.WriteString("未发现明显异常信号。\n\n")
		}
		for _, fnd := range s.Anomalies.Findings {
			fmt.Fprintf(&b, "- [%s] %s\n", fnd.Severity, fnd.Description)
		}
		if len(s.Anomalies.Findings) > 0 {
			b.WriteString("\n")
		}
	}

	if s.NewsSentiment != nil {
		b.WriteString("## 舆情概览\n\n")
		if s.NewsSentiment.Error != "" {
			fmt.Fprintf(&b, "舆情数据获取失败: %s\n\n", s.NewsSentiment.Error)
		} else {
			fmt.Fprintf(&b, "新闻条数 %d，整体情绪 %.2f，舆情风险 %s。\n\n",
				s.NewsSentiment.NewsCount, s.NewsSentiment.OverallSentiment, s.NewsSentiment.RiskLevel)
		}
	}
	return b.String()
}

// metricLabel pairs a metric key with its display label. Sections render
// from ordered slices so the same summary always produces the same Markdown.
type metricLabel struct {
	key, label string
}

func section(b *strings.Builder, title string, res *analysis.SectionResult, labels []metricLabel) {
	if res == nil {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, l := range labels {
		fmt.Fprintf(b, "- %s: %s\n", l.label, f2(res.Metrics[l.key]))
	}
	for _, t := range res.Trend {
		fmt.Fprintf(b, "- 趋势: %s\n", t)
	}
	for _, r := range res.Risks {
		fmt.Fprintf(b, "- 风险: %s\n", r)
	}
	for _, o := range res.Observations {
		fmt.Fprintf(b, "- 观察: %s\n", o)
	}
	if res.Assessment != "" {
		fmt.Fprintf(b, "\n评价: %s\n", res.Assessment)
	}
	b.WriteString("\n")
}

// Valuation renders one comprehensive valuation summary.
func Valuation(s *valuation.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s(%s) 估值报告\n\n", s.Name, s.Code)

	order := []string{valuation.MethodDCF, valuation.MethodDDM, valuation.MethodRelative}
	titles := map[string]string{
		valuation.MethodDCF:      "现金流折现 (DCF)",
		valuation.MethodDDM:      "股利折现 (DDM)",
		valuation.MethodRelative: "相对估值",
	}
	for _, method := range order {
		m := s.Methods[method]
		if m == nil {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", titles[method])
		if m.Error != "" {
			fmt.Fprintf(&b, "该方法不适用: %s\n\n", m.Error)
			continue
		}
		fmt.Fprintf(&b, "- 每股价值: %s\n", yuan(m.PerShareValue))
		keys := make([]string, 0, len(m.Assessment))
		for k := range m.Assessment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", strings.ToUpper(k), m.Assessment[k])
		}
		if m.Note != "" {
			fmt.Fprintf(&b, "- 说明: %s\n", m.Note)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 综合结论\n\n")
	fmt.Fprintf(&b, "- 现价: %s\n", yuan(s.CurrentPrice))
	fmt.Fprintf(&b, "- 综合估值: %s\n", yuan(s.MeanValue))
	fmt.Fprintf(&b, "- 建议买入价: %s\n", yuan(s.BuyPrice))
	fmt.Fprintf(&b, "- 安全边际: %s\n", pct(s.MarginOfSafety))
	if s.Judgement != "" {
		fmt.Fprintf(&b, "- 估值判断: %s\n", s.Judgement)
	}
	if s.Conclusion != "" {
		fmt.Fprintf(&b, "\n%s\n", s.Conclusion)
	}
	return b.String()
}

// Sector renders one sector aggregation snapshot.
func Sector(snap *sector.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 板块分析快照\n\n")
	fmt.Fprintf(&b, "- 运行编号: %s\n", snap.RunID)
	fmt.Fprintf(&b, "- 生成时间: %s\n", snap.FetchTime)
	fmt.Fprintf(&b, "- 失败个股: %d\n\n", snap.Failed)

	b.WriteString("## 子板块统计\n\n")
	b.WriteString("| 板块 | 成员数 | 平均PE | 平均ROE | 平均毛利率 | 总市值 | 龙头 |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	names := make([]string, 0, len(snap.Stats))
	for name := range snap.Stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := snap.Stats[name]
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s |\n",
			name, st.Count, f2(st.AvgPE), pct(st.AvgROE), pct(st.AvgGrossMargin),
			f2(st.TotalMarketCap), orUnavailable(st.Leader))
	}

	b.WriteString("\n## 综合排名\n\n")
	for i, s := range snap.Ranking {
		if i >= 20 {
			break
		}
		line := fmt.Sprintf("%d. %s(%s) 得分%.0f", i+1, s.Name, s.Code, s.Score)
		if len(s.Reasons) > 0 {
			line += ": " + strings.Join(s.Reasons, "；")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func orUnavailable(s string) string {
	if s == "" {
		return Unavailable
	}
	return s
}
