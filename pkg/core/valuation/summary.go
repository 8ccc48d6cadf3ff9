package valuation

import (
	"ashare_analysis/pkg/models"
)

// Judgement labels for the price-versus-value comparison.
const (
	JudgementUndervalued = "低估"
	JudgementFair        = "合理"
	JudgementOvervalued  = "高估"
)

// Summary aggregates the individual method results for one record.
type Summary struct {
	Code      string                   `json:"code"`
	Name      string                   `json:"name,omitempty"`
	Methods   map[string]*MethodResult `json:"methods"`
	Succeeded []string                 `json:"succeeded"`

	CurrentPrice   *float64 `json:"current_price,omitempty"`
	MeanValue      *float64 `json:"mean_value,omitempty"`
	BuyPrice       *float64 `json:"buy_price,omitempty"`
	MarginOfSafety *float64 `json:"margin_of_safety,omitempty"`
	Judgement      string   `json:"judgement,omitempty"`
	Conclusion     string   `json:"conclusion,omitempty"`
}

// Comprehensive runs every valuation method, tolerating per-method failure,
// and blends the per-share values of the methods that produced one. The final
// judgement compares the blended value against the current price with a band
// of pol.JudgementBand around fair value.
func (e *Engine) Comprehensive(rec *models.StockRecord) *Summary {
	sum := &Summary{
		Code:    rec.Code,
		Name:    rec.BasicInfo.Name,
		Methods: map[string]*MethodResult{},
	}

	dcf, _ := e.DCF(rec, DCFParams{})
	ddm, _ := e.DDM(rec, DDMParams{})
	rel, _ := e.Relative(rec)
	sum.Methods[MethodDCF] = dcf
	sum.Methods[MethodDDM] = ddm
	sum.Methods[MethodRelative] = rel

	var total float64
	var n int
	for _, m := range []*MethodResult{dcf, ddm, rel} {
		if m == nil || m.Error != "" || m.PerShareValue == nil {
			continue
		}
		sum.Succeeded = append(sum.Succeeded, m.Method)
		total += *m.PerShareValue
		n++
	}
	if n == 0 {
		sum.Conclusion = "数据不足，无法给出综合估值"
		return sum
	}

	mean := total / float64(n)
	sum.MeanValue = models.Float64Ptr(mean)
	sum.BuyPrice = models.Float64Ptr(mean * (1 - e.pol.MarginOfSafety/100))

	price := currentPrice(rec)
	if price == nil || *price <= 0 {
		sum.Conclusion = "缺少现价，无法判断高低估"
		return sum
	}
	sum.CurrentPrice = price

	// Positive margin means the price sits below the blended value.
	margin := (mean - *price) / mean * 100
	sum.MarginOfSafety = models.Float64Ptr(margin)

	band := e.pol.JudgementBand
	deviation := (*price - mean) / mean
	switch {
	case deviation < -band:
		sum.Judgement = JudgementUndervalued
		sum.Conclusion = "现价低于综合估值，存在安全边际"
	case deviation > band:
		sum.Judgement = JudgementOvervalued
		sum.Conclusion = "现价高于综合估值，需警惕回调风险"
	default:
		sum.Judgement = JudgementFair
		sum.Conclusion = "现价处于综合估值的合理区间"
	}
	return sum
}
