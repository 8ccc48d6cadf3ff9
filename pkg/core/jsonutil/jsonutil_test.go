package jsonutil

import "testing"

func TestDecodeLenientStrictJSON(t *testing.T) {
	var doc struct {
		Code string  `json:"code"`
		PE   float64 `json:"pe"`
	}
	if err := DecodeLenient([]byte(`{"code": "600519", "pe": 28.5}`), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Code != "600519" || doc.PE != 28.5 {
		t.Errorf("decoded %+v", doc)
	}
}

func TestDecodeLenientRepairsSloppyJSON(t *testing.T) {
	var doc map[string]any
	// Single quotes plus a trailing comma.
	if err := DecodeLenient([]byte(`{'code': '600519', 'pe': 28.5,}`), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["code"] != "600519" {
		t.Errorf("decoded %v", doc)
	}
}

func TestDecodeLenientAcceptsHjson(t *testing.T) {
	var doc map[string]any
	input := `{
  # hand-maintained override
  code: "600519"
  pe: 28.5
}`
	if err := DecodeLenient([]byte(input), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["code"] != "600519" {
		t.Errorf("decoded %v", doc)
	}
}

func TestDecodeLenientRejectsGarbage(t *testing.T) {
	var doc map[string]any
	if err := DecodeLenient([]byte("\x00\x01\x02"), &doc); err == nil {
		t.Error("binary garbage must not decode")
	}
}

func TestDecodeGeneric(t *testing.T) {
	doc, err := DecodeGeneric([]byte(`{"basic_info": {"name": "贵州茅台"}}`))
	if err != nil {
		t.Fatal(err)
	}
	info, ok := doc["basic_info"].(map[string]any)
	if !ok || info["name"] != "贵州茅台" {
		t.Errorf("decoded %v", doc)
	}
}
