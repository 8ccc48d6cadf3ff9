package analysis

import (
	"fmt"
	"strings"

	"ashare_analysis/pkg/models"
)

// Performance assessments.
const (
	PerformanceWeak    = "weak"
	PerformanceNeutral = "neutral"
	PerformanceStrong  = "strong"
)

// PerformanceReport carries forecast/express/audit/main-business signals.
type PerformanceReport struct {
	Signals    []string `json:"signals"`
	Assessment string   `json:"assessment"`
}

// AnalyzePerformance inspects the announcement-driven section of the record:
// earnings forecasts, express reports, audit opinions and main-business
// concentration.
func (a *Analyzer) AnalyzePerformance(rec *models.StockRecord) *PerformanceReport {
	res := &PerformanceReport{Assessment: PerformanceNeutral}
	perf := rec.PerformanceData
	if perf == nil {
		return res
	}

	var negative, positive int

	if len(perf.Forecast) > 0 {
		latest := perf.Forecast[0]
		lo := latest.Float("p_change_min")
		hi := latest.Float("p_change_max")
		var avg *float64
		switch {
		case lo != nil && hi != nil:
			avg = models.Float64Ptr((*lo + *hi) / 2)
		case lo != nil:
			avg = lo
		case hi != nil:
			avg = hi
		}
		if avg != nil {
			if *avg < -20 {
				res.Signals = append(res.Signals, fmt.Sprintf("latest earnings forecast weak (net profit YoY about %.1f%%)", *avg))
				negative++
			} else if *avg > 20 {
				res.Signals = append(res.Signals, fmt.Sprintf("latest earnings forecast strong (net profit YoY about %.1f%%)", *avg))
				positive++
			}
		}
	}

	if len(perf.Express) > 0 {
		if yoy := perf.Express[0].Float("yoy_net_profit"); yoy != nil {
			if *yoy < -20 {
				res.Signals = append(res.Signals, fmt.Sprintf("express report shows net profit clearly down YoY (%.1f%%)", *yoy))
				negative++
			} else if *yoy > 20 {
				res.Signals = append(res.Signals, fmt.Sprintf("express report shows high net profit growth YoY (%.1f%%)", *yoy))
				positive++
			}
		}
	}

	if len(perf.Audit) > 0 {
		opinion := perf.Audit[0].String("audit_result", "audit_agency")
		if opinion != "" {
			if nonStandardOpinion(opinion) {
				res.Signals = append(res.Signals, "audit opinion needs attention: "+opinion)
				negative++
			} else {
				res.Signals = append(res.Signals, "latest audit information: "+opinion)
			}
		}
	}

	if perf.MainBusiness != nil && len(perf.MainBusiness.ByProduct) > 0 {
		var total, top float64
		for _, row := range perf.MainBusiness.ByProduct {
			v := row.Float("bz_sales")
			if v == nil || *v < 0 {
				continue
			}
			total += *v
			if *v > top {
				top = *v
			}
		}
		if total > 0 {
			ratio := top / total * 100
			if ratio > 70 {
				res.Signals = append(res.Signals, fmt.Sprintf("main-business concentration high (top line about %.1f%% of revenue)", ratio))
				negative++
			}
		}
	}

	switch {
	case negative >= 2:
		res.Assessment = PerformanceWeak
	case positive >= 2 && negative == 0:
		res.Assessment = PerformanceStrong
	}
	return res
}

// nonStandardOpinion matches the audit-opinion phrases that mark a qualified
// or adverse report.
func nonStandardOpinion(opinion string) bool {
	for _, marker := range []string{"非标", "保留", "否定", "无法表示"} {
		if strings.Contains(opinion, marker) {
			return true
		}
	}
	return false
}
