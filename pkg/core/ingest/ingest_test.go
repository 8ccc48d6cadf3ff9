package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ashare_analysis/pkg/models"
)

func TestTSCode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"600519", "600519.SH"},
		{"900905", "900905.SH"},
		{"510300", "510300.SH"},
		{"000001", "000001.SZ"},
		{"300750", "300750.SZ"},
		{"830799", "830799.BJ"},
		{"430047", "430047.BJ"},
		{"600519.SH", "600519.SH"},
		{" 000001 ", "000001.SZ"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := TSCode(tc.in); got != tc.want {
			t.Errorf("TSCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("600519.SH"); got != "600519" {
		t.Errorf("Normalize = %q", got)
	}
	if got := Normalize(" 000001 "); got != "000001" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestIndexScopes(t *testing.T) {
	if IndexScopes["hs300"] != "000300.SH" {
		t.Errorf("hs300 = %q", IndexScopes["hs300"])
	}
	if _, ok := IndexScopes["cyb"]; !ok {
		t.Error("cyb scope missing")
	}
}

func TestDecodeRows(t *testing.T) {
	body := []byte(`{
		"code": 0,
		"msg": "",
		"data": {
			"fields": ["ts_code", "end_date", "roe"],
			"items": [
				["600519.SH", "20231231", 28.5],
				["600519.SH", "20230930", null]
			]
		}
	}`)

	rows, err := decodeRows("fina_indicator", body)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if roe := rows[0].Float("roe"); roe == nil || *roe != 28.5 {
		t.Errorf("roe = %v", roe)
	}
	if rows[0]["end_date"] != "20231231" {
		t.Errorf("end_date = %v", rows[0]["end_date"])
	}
	// Nulls stay as absent values, not zeros.
	if roe := rows[1].Float("roe"); roe != nil {
		t.Errorf("null roe = %v, want nil", roe)
	}
}

func TestDecodeRowsAPIError(t *testing.T) {
	body := []byte(`{"code": 2002, "msg": "权限不足", "data": null}`)

	_, err := decodeRows("daily", body)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type %T", err)
	}
	if fe.Code != 2002 || fe.API != "daily" {
		t.Errorf("fetch error = %+v", fe)
	}
}

func TestDecodeRowsMalformed(t *testing.T) {
	if _, err := decodeRows("daily", []byte(`{"code": 0, "data": {}}`)); err == nil {
		t.Error("missing fields/items must error")
	}
}

func TestQueryAgainstStubServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"code": 0, "data": {"fields": ["ts_code"], "items": [["600519.SH"]]}}`))
	}))
	defer srv.Close()

	c := NewClient("test-token")
	c.baseURL = srv.URL

	rows, err := c.Query(context.Background(), "stock_basic", map[string]string{"ts_code": "600519.SH"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["ts_code"] != "600519.SH" {
		t.Errorf("rows = %v", rows)
	}
}

func TestQueryDoesNotRetryAPIRejection(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"code": 2002, "msg": "token invalid"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-token")
	c.baseURL = srv.URL

	_, err := c.Query(context.Background(), "daily", nil, "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server called %d times, want 1 (no retry on API rejection)", n)
	}
}

func TestQueryHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-token")
	c.baseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First attempt fails on status, the retry wait sees the dead context.
	if _, err := c.Query(ctx, "daily", nil, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRenameRows(t *testing.T) {
	rows := []models.Row{
		{"end_date": "20231231", "roe": 28.5, "extra_col": 1.0},
	}

	renamed := renameRows(rows, indicatorNames)
	if renamed[0][models.KeyPeriod] != "20231231" {
		t.Errorf("period = %v", renamed[0][models.KeyPeriod])
	}
	if roe := renamed[0].Float(models.KeyROE); roe == nil || *roe != 28.5 {
		t.Errorf("roe = %v", roe)
	}
	if _, ok := renamed[0]["end_date"]; ok {
		t.Error("source column must be removed after rename")
	}
	// Unknown columns survive untouched.
	if renamed[0]["extra_col"] != 1.0 {
		t.Errorf("extra_col = %v", renamed[0]["extra_col"])
	}
}
