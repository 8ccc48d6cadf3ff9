// Package valuation estimates per-share intrinsic value with three
// independent methods (discounted cash flow, dividend discount, relative
// multiple) and blends the survivors into an average value with a
// safety-margin buy price. Each method may fail on its own without aborting
// the others; failures are reported inline on the method result.
package valuation

import (
	"errors"
	"fmt"

	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/models"
)

// Method names as they appear in result documents.
const (
	MethodDCF      = "dcf"
	MethodDDM      = "ddm"
	MethodRelative = "relative"
)

// ValuationError marks a violated mathematical precondition, e.g. terminal
// growth at or above the discount rate. The offending method is skipped;
// sibling methods proceed.
type ValuationError struct {
	Method string
	Reason string
}

func (e *ValuationError) Error() string {
	return fmt.Sprintf("%s valuation: %s", e.Method, e.Reason)
}

// ErrInsufficientData marks a method that cannot run on the data present.
// Wrap with context when returning.
var ErrInsufficientData = errors.New("insufficient data")

// MethodResult is the inline-reportable outcome of one method. A failed
// method carries its error string and nil values; PerShareValue is nil,
// never zero, when the method could not produce an estimate.
type MethodResult struct {
	Method         string             `json:"method"`
	Parameters     map[string]float64 `json:"parameters,omitempty"`
	Calculation    map[string]float64 `json:"calculation,omitempty"`
	IntrinsicValue *float64           `json:"intrinsic_value"`
	PerShareValue  *float64           `json:"per_share_value"`
	Assessment     map[string]string  `json:"assessment,omitempty"`
	Error          string             `json:"error,omitempty"`
	Note           string             `json:"note,omitempty"`
}

// Engine runs valuations against an immutable policy.
type Engine struct {
	pol policy.ValuationPolicy
}

// New builds an engine with the given defaults.
func New(pol policy.ValuationPolicy) *Engine {
	return &Engine{pol: pol}
}

// totalShares resolves the absolute share count from basic_info.
func totalShares(rec *models.StockRecord) *float64 {
	return models.ParseShares(rec.BasicInfo.TotalShares)
}

// currentPrice resolves the latest close.
func currentPrice(rec *models.StockRecord) *float64 {
	if rec.Price == nil {
		return nil
	}
	return rec.Price.LatestPrice
}
