// Package contract validates raw stock-data documents before any analysis
// runs. Validation happens on the generic JSON form so mis-typed sections are
// caught before they are coerced into the typed schema.
package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"ashare_analysis/pkg/models"
)

// RequiredTopLevelKeys must be present on any record entering an analyzer.
var RequiredTopLevelKeys = []string{"code", "fetch_time", "data_type", "basic_info"}

// statementKeys are the three statement arrays inside financial_data.
var statementKeys = []string{"balance_sheet", "income_statement", "cash_flow"}

// ContractError reports every violation found in a document. It is fatal to
// that record's analysis; batch callers exclude the record and move on.
type ContractError struct {
	Violations []string
}

func (e *ContractError) Error() string {
	return "data contract violation: " + strings.Join(e.Violations, "; ")
}

// Validate checks a decoded JSON object against the stock-data contract and
// returns all violations. requiredSections names optional sections the caller
// cannot work without (e.g. the analyzer needs financial_indicators).
// Validating a document that already passed is a no-op: the checks are pure
// and the document is never mutated.
func Validate(doc map[string]any, requiredSections ...string) []string {
	var violations []string

	if doc == nil {
		return []string{"input is not a JSON object"}
	}

	for _, key := range RequiredTopLevelKeys {
		if _, ok := doc[key]; !ok {
			violations = append(violations, fmt.Sprintf("missing top-level field: %s", key))
		}
	}

	if v, ok := doc["basic_info"]; ok {
		if _, isObj := v.(map[string]any); !isObj {
			violations = append(violations, "field basic_info must be an object")
		}
	}

	if v, ok := doc["financial_data"]; ok && v != nil {
		fd, isObj := v.(map[string]any)
		if !isObj {
			violations = append(violations, "field financial_data must be an object")
		} else {
			for _, key := range statementKeys {
				if s, ok := fd[key]; ok && s != nil {
					if _, isArr := s.([]any); !isArr {
						violations = append(violations, fmt.Sprintf("field financial_data.%s must be an array", key))
					}
				}
			}
		}
	}

	arrayFields := map[string]bool{"financial_indicators": true, "news_items": true}
	for _, key := range []string{
		"financial_indicators", "news_items", "holder", "dividend",
		"valuation", "price", "news_sentiment", "performance_data",
	} {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		if arrayFields[key] {
			if _, isArr := v.([]any); !isArr {
				violations = append(violations, fmt.Sprintf("field %s must be an array", key))
			}
		} else {
			if _, isObj := v.(map[string]any); !isObj {
				violations = append(violations, fmt.Sprintf("field %s must be an object", key))
			}
		}
	}

	if v, ok := doc["performance_data"]; ok {
		if perf, isObj := v.(map[string]any); isObj {
			for _, key := range []string{"forecast", "express", "audit"} {
				if s, ok := perf[key]; ok && s != nil {
					if _, isArr := s.([]any); !isArr {
						violations = append(violations, fmt.Sprintf("field performance_data.%s must be an array", key))
					}
				}
			}
		}
	}

	for _, section := range requiredSections {
		if _, ok := doc[section]; !ok {
			violations = append(violations, fmt.Sprintf("missing section required for analysis: %s", section))
		}
	}

	return violations
}

// Ensure returns a *ContractError when the document violates the contract.
func Ensure(doc map[string]any, requiredSections ...string) error {
	if violations := Validate(doc, requiredSections...); len(violations) > 0 {
		return &ContractError{Violations: violations}
	}
	return nil
}

// Decode validates raw JSON against the contract and, on success, unmarshals
// it into the typed record. The two-step order matters: type errors surface
// as contract violations with field names, not as opaque unmarshal failures.
func Decode(data []byte, requiredSections ...string) (*models.StockRecord, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ContractError{Violations: []string{fmt.Sprintf("input is not valid JSON: %v", err)}}
	}
	if err := Ensure(doc, requiredSections...); err != nil {
		return nil, err
	}

	var rec models.StockRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &ContractError{Violations: []string{fmt.Sprintf("record decode failed: %v", err)}}
	}
	return &rec, nil
}
