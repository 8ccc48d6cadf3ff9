package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"ashare_analysis/pkg/models"
)

// Endpoint names of the Tushare Pro API.
const (
	apiStockBasic    = "stock_basic"
	apiDaily         = "daily"
	apiDailyBasic    = "daily_basic"
	apiFinaIndicator = "fina_indicator"
	apiIncome        = "income"
	apiBalanceSheet  = "balancesheet"
	apiCashFlow      = "cashflow"
	apiTop10Holders  = "top10_holders"
	apiDividend      = "dividend"
)

// Column renames applied to fetched rows so downstream consumers see the
// same line-item names regardless of provider.
var (
	indicatorNames = map[string]string{
		"end_date":           models.KeyPeriod,
		"roe":                models.KeyROE,
		"roe_waa":            models.KeyROEWeighted,
		"roa":                models.KeyROA,
		"grossprofit_margin": models.KeyGrossMargin,
		"netprofit_margin":   models.KeyNetMargin,
		"debt_to_assets":     models.KeyDebtRatio,
		"current_ratio":      models.KeyCurrentRatio,
		"quick_ratio":        models.KeyQuickRatio,
		"ar_turn":            models.KeyARTurnover,
		"inv_turn":           models.KeyInventoryTurnover,
		"assets_turn":        models.KeyAssetTurnover,
		"or_yoy":             models.KeyRevenueGrowth,
		"netprofit_yoy":      models.KeyProfitGrowth,
	}
	incomeNames = map[string]string{
		"end_date":      models.KeyPeriod,
		"n_income":      models.KeyNetIncome,
		"total_revenue": models.KeyRevenue,
	}
	balanceNames = map[string]string{
		"end_date":                   models.KeyPeriod,
		"total_assets":               models.KeyTotalAssets,
		"total_hldr_eqy_inc_min_int": models.KeyTotalEquity,
	}
	cashFlowNames = map[string]string{
		"end_date":               models.KeyPeriod,
		"n_cashflow_act":         models.KeyOCF,
		"c_pay_acq_const_fiolta": models.KeyCapex,
	}
	dividendNames = map[string]string{
		"end_date":     models.KeyPeriod,
		"cash_div_tax": models.KeyDividendPerShare,
	}
)

// Fetcher assembles full stock records from the API client. A nil news
// analyzer skips the news section.
type Fetcher struct {
	client *Client
	news   *NewsClient

	// ScoreNews turns fetched headlines into the sentiment summary carried
	// on the record.
	ScoreNews func([]models.NewsItem) *models.NewsSentiment
}

func NewFetcher(client *Client, news *NewsClient) *Fetcher {
	return &Fetcher{client: client, news: news}
}

// FetchRecord assembles one record. Sections fail independently: a broken
// endpoint logs and leaves its section nil (or error-annotated for news),
// it never fails the whole record. Only a missing basic_info is fatal,
// because nothing downstream can run without identity.
func (f *Fetcher) FetchRecord(ctx context.Context, code string) (*models.StockRecord, error) {
	tsCode := TSCode(code)
	rec := &models.StockRecord{
		Code:      Normalize(code),
		FetchTime: time.Now().Format("2006-01-02 15:04:05"),
		DataType:  "comprehensive",
	}

	if err := f.fetchBasicInfo(ctx, tsCode, rec); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", code, err)
	}

	f.fetchPrice(ctx, tsCode, rec)
	f.fetchIndicators(ctx, tsCode, rec)
	f.fetchStatements(ctx, tsCode, rec)
	f.fetchHolders(ctx, tsCode, rec)
	f.fetchDividends(ctx, tsCode, rec)
	f.fetchNews(ctx, rec)
	return rec, nil
}

func (f *Fetcher) fetchBasicInfo(ctx context.Context, tsCode string, rec *models.StockRecord) error {
	rows, err := f.client.Query(ctx, apiStockBasic, map[string]string{"ts_code": tsCode},
		"ts_code,name,industry,area,market,list_date")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return &FetchError{API: apiStockBasic, Msg: "unknown code " + tsCode}
	}
	row := rows[0]
	rec.BasicInfo = models.BasicInfo{
		Name:     row.String("name"),
		Industry: row.String("industry"),
		Area:     row.String("area"),
		Market:   row.String("market"),
		ListDate: row.String("list_date"),
	}

	rows, err = f.client.Query(ctx, apiDailyBasic, map[string]string{"ts_code": tsCode},
		"trade_date,pe_ttm,pb,dv_ttm,total_mv,circ_mv,total_share")
	if err != nil {
		log.Printf("ingest: %s daily_basic unavailable: %v", tsCode, err)
		return nil
	}
	if len(rows) > 0 {
		row = rows[0]
		rec.BasicInfo.PETTM = row.Float("pe_ttm")
		rec.BasicInfo.PB = row.Float("pb")
		rec.BasicInfo.TotalMV = row.Float("total_mv")
		rec.BasicInfo.CirculateMV = row.Float("circ_mv")
		if ts := row.Float("total_share"); ts != nil {
			// daily_basic reports 万股.
			rec.BasicInfo.TotalShares = fmt.Sprintf("%.2f万", *ts)
		}
		rec.Valuation = &models.Valuation{Latest: row}
	}
	return nil
}

func (f *Fetcher) fetchPrice(ctx context.Context, tsCode string, rec *models.StockRecord) {
	rows, err := f.client.Query(ctx, apiDaily, map[string]string{"ts_code": tsCode},
		"trade_date,open,high,low,close,pct_chg,vol,amount")
	if err != nil {
		log.Printf("ingest: %s daily unavailable: %v", tsCode, err)
		return
	}
	if len(rows) == 0 {
		return
	}
	latest := rows[0]
	rec.Price = &models.Price{
		LatestPrice: latest.Float("close"),
		PctChange:   latest.Float("pct_chg"),
		TradeDate:   latest.String("trade_date"),
		History:     rows,
	}
}

func (f *Fetcher) fetchIndicators(ctx context.Context, tsCode string, rec *models.StockRecord) {
	rows, err := f.client.Query(ctx, apiFinaIndicator, map[string]string{"ts_code": tsCode}, "")
	if err != nil {
		log.Printf("ingest: %s fina_indicator unavailable: %v", tsCode, err)
		return
	}
	rec.FinancialIndicators = renameRows(rows, indicatorNames)
}

func (f *Fetcher) fetchStatements(ctx context.Context, tsCode string, rec *models.StockRecord) {
	params := map[string]string{"ts_code": tsCode}
	fin := &models.FinancialData{}
	ok := false

	if rows, err := f.client.Query(ctx, apiIncome, params, ""); err == nil {
		fin.IncomeStatement = renameRows(rows, incomeNames)
		ok = true
	} else {
		log.Printf("ingest: %s income unavailable: %v", tsCode, err)
	}
	if rows, err := f.client.Query(ctx, apiBalanceSheet, params, ""); err == nil {
		fin.BalanceSheet = renameRows(rows, balanceNames)
		ok = true
	} else {
		log.Printf("ingest: %s balancesheet unavailable: %v", tsCode, err)
	}
	if rows, err := f.client.Query(ctx, apiCashFlow, params, ""); err == nil {
		fin.CashFlow = renameRows(rows, cashFlowNames)
		ok = true
	} else {
		log.Printf("ingest: %s cashflow unavailable: %v", tsCode, err)
	}
	if ok {
		rec.FinancialData = fin
	}
}

func (f *Fetcher) fetchHolders(ctx context.Context, tsCode string, rec *models.StockRecord) {
	rows, err := f.client.Query(ctx, apiTop10Holders, map[string]string{"ts_code": tsCode}, "")
	if err != nil {
		log.Printf("ingest: %s top10_holders unavailable: %v", tsCode, err)
		return
	}
	if len(rows) > 0 {
		rec.Holder = &models.Holder{TopHolders: rows}
	}
}

func (f *Fetcher) fetchDividends(ctx context.Context, tsCode string, rec *models.StockRecord) {
	rows, err := f.client.Query(ctx, apiDividend, map[string]string{"ts_code": tsCode}, "")
	if err != nil {
		log.Printf("ingest: %s dividend unavailable: %v", tsCode, err)
		return
	}
	if len(rows) > 0 {
		rec.Dividend = &models.Dividend{History: renameRows(rows, dividendNames)}
	}
}

// fetchNews is the one section that annotates its own failure on the record,
// because downstream scoring treats "no news" and "news fetch failed"
// differently.
func (f *Fetcher) fetchNews(ctx context.Context, rec *models.StockRecord) {
	if f.news == nil {
		return
	}
	items, err := f.news.Fetch(ctx, rec.Code, rec.BasicInfo.Name)
	if err != nil {
		rec.NewsSentiment = &models.NewsSentiment{Error: err.Error()}
		return
	}
	rec.NewsItems = items
	if f.ScoreNews != nil {
		rec.NewsSentiment = f.ScoreNews(items)
	}
}

// renameRows rewrites provider column names in place; unknown columns pass
// through untouched so the round-trip stays lossless.
func renameRows(rows []models.Row, names map[string]string) []models.Row {
	for _, row := range rows {
		for from, to := range names {
			if v, ok := row[from]; ok {
				row[to] = v
				delete(row, from)
			}
		}
	}
	return rows
}
