package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ashare_analysis/pkg/models"
)

func TestSaveAndLoadRecordRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	rec := &models.StockRecord{
		Code:      "600519",
		FetchTime: "2024-06-30 10:00:00",
		DataType:  "stock_analysis_data",
		BasicInfo: models.BasicInfo{Name: "贵州茅台", TotalMV: models.Float64Ptr(21000)},
		FinancialIndicators: []models.Row{
			{models.KeyPeriod: "2023-12-31", models.KeyROE: 28.5},
		},
	}

	path, err := s.SaveRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(path), "600519_") {
		t.Errorf("snapshot name = %s", filepath.Base(path))
	}

	got, err := s.LoadRecord(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != rec.Code || got.BasicInfo.Name != rec.BasicInfo.Name {
		t.Errorf("round trip lost headline fields: %+v", got)
	}
	if roe := got.FinancialIndicators[0].Float(models.KeyROE); roe == nil || *roe != 28.5 {
		t.Errorf("roe = %v", roe)
	}
}

func TestLatestRecordPicksNewest(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Snapshot names sort by date; plant two by hand.
	old := `{"code": "600519", "fetch_time": "old", "data_type": "d", "basic_info": {"name": "旧"}}`
	fresh := `{"code": "600519", "fetch_time": "new", "data_type": "d", "basic_info": {"name": "新"}}`
	if err := os.WriteFile(filepath.Join(dir, "600519_20240101.json"), []byte(old), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "600519_20240630.json"), []byte(fresh), 0o644); err != nil {
		t.Fatal(err)
	}
	// A different code must not match.
	if err := os.WriteFile(filepath.Join(dir, "000858_20240701.json"), []byte(old), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := s.LatestRecord("600519")
	if err != nil {
		t.Fatal(err)
	}
	if rec.FetchTime != "new" {
		t.Errorf("picked %q, want the newest snapshot", rec.FetchTime)
	}

	if _, err := s.LatestRecord("999999"); err == nil {
		t.Error("unknown code must error")
	}
}

func TestSaveResultLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	path, err := s.SaveResult("screen", "hs300", map[string]any{"total": 3})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(path), "screen_hs300_") {
		t.Errorf("result name = %s", filepath.Base(path))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadRecordToleratesHandEdits(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Trailing comma, as a hand edit would leave it.
	edited := `{"code": "600519", "fetch_time": "t", "data_type": "d", "basic_info": {"name": "贵州茅台"},}`
	path := filepath.Join(dir, "600519_20240630.json")
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := s.LoadRecord(path)
	if err != nil {
		t.Fatalf("lenient load failed: %v", err)
	}
	if rec.BasicInfo.Name != "贵州茅台" {
		t.Errorf("record = %+v", rec)
	}
}
