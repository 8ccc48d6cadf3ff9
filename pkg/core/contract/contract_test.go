package contract

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func validDoc() map[string]any {
	return map[string]any{
		"code":       "600519",
		"fetch_time": "2024-06-30 10:00:00",
		"data_type":  "stock_analysis_data",
		"basic_info": map[string]any{"name": "贵州茅台"},
	}
}

func TestValidatePassesMinimalDocument(t *testing.T) {
	if v := Validate(validDoc()); len(v) != 0 {
		t.Errorf("unexpected violations: %v", v)
	}
}

func TestValidateReportsEveryMissingKey(t *testing.T) {
	doc := map[string]any{"code": "600519"}
	violations := Validate(doc)
	if len(violations) != 3 {
		t.Fatalf("violations = %v, want three missing-field entries", violations)
	}
	joined := strings.Join(violations, "; ")
	for _, key := range []string{"fetch_time", "data_type", "basic_info"} {
		if !strings.Contains(joined, key) {
			t.Errorf("missing key %s not reported in %q", key, joined)
		}
	}
}

func TestValidateNilDocument(t *testing.T) {
	if v := Validate(nil); len(v) != 1 || v[0] != "input is not a JSON object" {
		t.Errorf("violations = %v", v)
	}
}

func TestValidateMistypedSections(t *testing.T) {
	doc := validDoc()
	doc["basic_info"] = "not an object"
	doc["financial_indicators"] = map[string]any{"roe": 15}
	doc["holder"] = []any{1, 2}
	doc["financial_data"] = map[string]any{"balance_sheet": "oops"}

	violations := Validate(doc)
	joined := strings.Join(violations, "; ")
	for _, want := range []string{
		"basic_info must be an object",
		"financial_indicators must be an array",
		"holder must be an object",
		"financial_data.balance_sheet must be an array",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %q", want, joined)
		}
	}
}

func TestValidateNullSectionsAreTolerated(t *testing.T) {
	doc := validDoc()
	doc["financial_data"] = nil
	doc["news_items"] = nil
	if v := Validate(doc); len(v) != 0 {
		t.Errorf("null optional sections must pass: %v", v)
	}
}

func TestValidateRequiredSections(t *testing.T) {
	violations := Validate(validDoc(), "financial_indicators")
	if len(violations) != 1 || !strings.Contains(violations[0], "financial_indicators") {
		t.Errorf("violations = %v", violations)
	}

	doc := validDoc()
	doc["financial_indicators"] = []any{}
	if v := Validate(doc, "financial_indicators"); len(v) != 0 {
		t.Errorf("present section reported missing: %v", v)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	doc := validDoc()
	doc["financial_data"] = map[string]any{"income_statement": []any{}}

	first := Validate(doc, "financial_indicators")
	second := Validate(doc, "financial_indicators")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation diverged: %v vs %v", first, second)
	}
}

func TestEnsureWrapsViolations(t *testing.T) {
	err := Ensure(map[string]any{})
	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type %T", err)
	}
	if len(cerr.Violations) != len(RequiredTopLevelKeys) {
		t.Errorf("violations = %v", cerr.Violations)
	}
	if !strings.Contains(err.Error(), "data contract violation") {
		t.Errorf("message = %q", err.Error())
	}

	if err := Ensure(validDoc()); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
}

func TestDecodeTwoStep(t *testing.T) {
	raw := []byte(`{
		"code": "600519",
		"fetch_time": "2024-06-30 10:00:00",
		"data_type": "stock_analysis_data",
		"basic_info": {"name": "贵州茅台"},
		"financial_indicators": [{"净资产收益率": 28.5, "日期": "2023-12-31"}]
	}`)

	rec, err := Decode(raw, "financial_indicators")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Code != "600519" || rec.BasicInfo.Name != "贵州茅台" {
		t.Errorf("record headline: %+v", rec)
	}
	if len(rec.FinancialIndicators) != 1 {
		t.Fatalf("indicators = %d rows", len(rec.FinancialIndicators))
	}
	if roe := rec.FinancialIndicators[0].Float("净资产收益率"); roe == nil || *roe != 28.5 {
		t.Errorf("roe = %v", roe)
	}
}

func TestDecodeRejectsBeforeUnmarshal(t *testing.T) {
	// Mis-typed section surfaces as a named contract violation, not as an
	// opaque json.Unmarshal error.
	raw := []byte(`{
		"code": "600519",
		"fetch_time": "t",
		"data_type": "d",
		"basic_info": {},
		"financial_indicators": {"roe": 1}
	}`)

	_, err := Decode(raw)
	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type %T", err)
	}
	if !strings.Contains(err.Error(), "financial_indicators must be an array") {
		t.Errorf("message = %q", err.Error())
	}

	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("malformed JSON must error")
	}
}
