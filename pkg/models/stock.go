// Package models defines the StockRecord schema shared by every tool in this
// repository. A record is assembled by the fetcher, persisted as flat JSON,
// and consumed by the screener, analyzer and valuation engines. Statement and
// indicator rows stay map-based so provider fields round-trip losslessly.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Row is one period-keyed row from the data provider: line-item name to value.
// Values may arrive as numbers or as formatted strings ("12.3%", "1,234", "--").
type Row map[string]any

// Float extracts a numeric value from the row, trying each key in order.
// Returns nil when no key holds a usable number.
func (r Row) Float(keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if f := SafeFloat(v); f != nil {
				return f
			}
		}
	}
	return nil
}

// String extracts a string value, trying each key in order.
func (r Row) String(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// StockRecord is one entity per ticker per fetch. Only the first four fields
// are mandatory; every optional section is a pointer or slice whose absence
// means "no data", never an error.
type StockRecord struct {
	Code      string    `json:"code"`
	FetchTime string    `json:"fetch_time"`
	DataType  string    `json:"data_type"`
	BasicInfo BasicInfo `json:"basic_info"`

	FinancialData       *FinancialData   `json:"financial_data,omitempty"`
	FinancialIndicators []Row            `json:"financial_indicators,omitempty"`
	Valuation           *Valuation       `json:"valuation,omitempty"`
	Price               *Price           `json:"price,omitempty"`
	Holder              *Holder          `json:"holder,omitempty"`
	Dividend            *Dividend        `json:"dividend,omitempty"`
	NewsItems           []NewsItem       `json:"news_items,omitempty"`
	NewsSentiment       *NewsSentiment   `json:"news_sentiment,omitempty"`
	PerformanceData     *PerformanceData `json:"performance_data,omitempty"`
}

// BasicInfo carries the per-ticker static snapshot.
type BasicInfo struct {
	Name        string `json:"name"`
	Industry    string `json:"industry,omitempty"`
	Area        string `json:"area,omitempty"`
	Market      string `json:"market,omitempty"`
	ListDate    string `json:"list_date,omitempty"`
	TotalShares string `json:"total_shares,omitempty"`

	PETTM       *float64 `json:"pe_ttm,omitempty"`
	PB          *float64 `json:"pb,omitempty"`
	TotalMV     *float64 `json:"total_mv,omitempty"`
	CirculateMV *float64 `json:"circ_mv,omitempty"`
}

// FinancialData holds the three statement sequences, most recent period
// first. The slices are always sequences once the section exists; an empty
// slice means no periods were available.
type FinancialData struct {
	BalanceSheet    []Row `json:"balance_sheet"`
	IncomeStatement []Row `json:"income_statement"`
	CashFlow        []Row `json:"cash_flow"`
}

// Valuation is the provider's valuation snapshot plus historical percentiles.
type Valuation struct {
	Latest       Row      `json:"latest,omitempty"`
	PEPercentile *float64 `json:"pe_percentile,omitempty"`
	PBPercentile *float64 `json:"pb_percentile,omitempty"`
}

// Price holds the latest close and optional history rows.
type Price struct {
	LatestPrice *float64 `json:"latest_price,omitempty"`
	PctChange   *float64 `json:"pct_chg,omitempty"`
	TradeDate   string   `json:"trade_date,omitempty"`
	History     []Row    `json:"history,omitempty"`
}

// Holder bundles ownership, pledge and reduction disclosures.
type Holder struct {
	TopHolders        []Row    `json:"top_holders,omitempty"`
	PledgeRatio       *float64 `json:"pledge_ratio,omitempty"`
	Reductions        []Row    `json:"reductions,omitempty"`
	RelatedPartyRatio *float64 `json:"related_party_ratio,omitempty"`
}

// Dividend holds the per-share dividend history, most recent first.
type Dividend struct {
	History []Row `json:"dividend_history"`
}

// NewsItem is one fetched headline.
type NewsItem struct {
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	URL         string `json:"url,omitempty"`
}

// NewsSentiment is the aggregate stored on the record. When the news fetch
// failed, Error carries the reason and the numeric fields are zero-valued.
type NewsSentiment struct {
	NewsCount        int     `json:"news_count"`
	OverallSentiment float64 `json:"overall_sentiment"`
	RiskLevel        string  `json:"risk_level,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// PerformanceData carries forecast/express/audit/main-business signals.
type PerformanceData struct {
	Forecast     []Row         `json:"forecast,omitempty"`
	Express      []Row         `json:"express,omitempty"`
	Audit        []Row         `json:"audit,omitempty"`
	MainBusiness *MainBusiness `json:"main_business,omitempty"`
}

// MainBusiness is the revenue composition breakdown.
type MainBusiness struct {
	ByProduct []Row `json:"by_product,omitempty"`
	ByRegion  []Row `json:"by_region,omitempty"`
}

// ScoreResult is the ephemeral output of one analyzer invocation. It has no
// identity beyond the record it scores and is never persisted on its own.
type ScoreResult struct {
	Score      int      `json:"score"`
	Conclusion string   `json:"conclusion"`
	RiskLevel  string   `json:"risk_level"`
	Findings   []string `json:"findings,omitempty"`
}

// Provider line-item names used across the analysis packages. The provider
// speaks Chinese; these constants keep the spelling in one place.
const (
	KeyPeriod            = "日期"
	KeyROE               = "净资产收益率"
	KeyROEWeighted       = "加权净资产收益率"
	KeyROA               = "总资产报酬率"
	KeyGrossMargin       = "销售毛利率"
	KeyNetMargin         = "销售净利率"
	KeyDebtRatio         = "资产负债率"
	KeyCurrentRatio      = "流动比率"
	KeyQuickRatio        = "速动比率"
	KeyARTurnover        = "应收账款周转率"
	KeyARDays            = "应收账款周转天数"
	KeyInventoryTurnover = "存货周转率"
	KeyInventoryDays     = "存货周转天数"
	KeyAssetTurnover     = "总资产周转率"
	KeyEquityMultiplier  = "权益乘数"
	KeyRevenueGrowth     = "营业收入增长率"
	KeyMainRevenueGrowth = "主营业务收入增长率"
	KeyProfitGrowth      = "净利润增长率"
	KeyARGrowth          = "应收账款增长率"
	KeyInventoryGrowth   = "存货增长率"

	KeyNetIncome   = "净利润"
	KeyRevenue     = "营业收入"
	KeyTotalAssets = "资产总计"
	KeyTotalEquity = "所有者权益(或股东权益)合计"
	KeyEquityAlt   = "股东权益合计"
	KeyOCF         = "经营活动产生的现金流量净额"
	KeyCapex       = "购建固定资产、无形资产和其他长期资产支付的现金"

	KeyDividendPerShare = "每股股利"
	KeyDividendAlt      = "派息"
)

// SafeFloat coerces a provider value into a float. It tolerates the common
// formatting quirks: "--" and empty strings, percent signs, thousands
// separators and the 亿 suffix. Returns nil for anything unusable.
func SafeFloat(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f := t
		return &f
	case float32:
		f := float64(t)
		return &f
	case int:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" || s == "--" {
			return nil
		}
		s = strings.ReplaceAll(s, "%", "")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "亿", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// ParseShares converts a share-count string to an absolute number of shares.
// Provider values come as "7.52亿" or "85000万"; bare numbers pass through.
func ParseShares(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	mult := 1.0
	switch {
	case strings.Contains(s, "亿"):
		mult = 1e8
		s = strings.ReplaceAll(s, "亿", "")
	case strings.Contains(s, "万"):
		mult = 1e4
		s = strings.ReplaceAll(s, "万", "")
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	v := f * mult
	return &v
}

// Float64Ptr is a small helper for building records in tests and fetchers.
func Float64Ptr(f float64) *float64 { return &f }
