package ingest

import "strings"

// IndexScopes maps the short index names accepted on the CLI to the Tushare
// index codes used for constituent lookups.
var IndexScopes = map[string]string{
	"hs300":  "000300.SH",
	"zz500":  "000905.SH",
	"zz1000": "000852.SH",
	"cyb":    "399006.SZ",
	"kcb":    "000688.SH",
}

// Normalize strips an existing exchange suffix and surrounding whitespace,
// returning the bare six-digit code.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i >= 0 {
		code = code[:i]
	}
	return code
}

// TSCode appends the exchange suffix Tushare expects. Shanghai listings start
// with 6, 9 or 5, Beijing with 4 or 8, everything else trades in Shenzhen.
func TSCode(code string) string {
	code = Normalize(code)
	if code == "" {
		return code
	}
	switch code[0] {
	case '6', '9', '5':
		return code + ".SH"
	case '4', '8':
		return code + ".BJ"
	default:
		return code + ".SZ"
	}
}
