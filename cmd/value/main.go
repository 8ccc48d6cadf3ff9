// Command value runs DCF, DDM and relative valuation over a stored stock
// record and blends the survivors into a comprehensive judgement.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"ashare_analysis/pkg/core/contract"
	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/core/report"
	"ashare_analysis/pkg/core/store"
	"ashare_analysis/pkg/core/valuation"
	"ashare_analysis/pkg/models"
)

func main() {
	code := flag.String("code", "", "stock code")
	file := flag.String("file", "", "value one record file instead of a stored snapshot")
	dataDir := flag.String("data-dir", "data", "snapshot directory")
	method := flag.String("method", "all", "valuation method: dcf|ddm|relative|all")
	policyFile := flag.String("policy", "", "optional policy file (hjson/yaml)")
	discountRate := flag.Float64("discount-rate", 0, "override discount rate % (dcf)")
	terminalGrowth := flag.Float64("terminal-growth", 0, "override terminal growth % (dcf)")
	output := flag.String("output", "", "write result JSON here instead of stdout")
	reportPath := flag.String("report", "", "also write a Markdown report here")
	flag.Parse()

	if *code == "" && *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	pol, err := policy.LoadFile(*policyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}
	engine := valuation.New(pol.Valuation)

	rec, err := loadRecord(*code, *file, *dataDir)
	if err != nil {
		log.Fatal(err)
	}

	var doc any
	var md string
	switch *method {
	case valuation.MethodDCF:
		res, err := engine.DCF(rec, valuation.DCFParams{
			DiscountRate:   *discountRate,
			TerminalGrowth: *terminalGrowth,
		})
		if err != nil {
			log.Fatalf("dcf: %v", err)
		}
		doc = res
	case valuation.MethodDDM:
		res, err := engine.DDM(rec, valuation.DDMParams{})
		if err != nil {
			log.Fatalf("ddm: %v", err)
		}
		doc = res
	case valuation.MethodRelative:
		res, err := engine.Relative(rec)
		if err != nil {
			log.Fatalf("relative: %v", err)
		}
		doc = res
	case "all":
		summary := engine.Comprehensive(rec)
		doc = summary
		md = report.Valuation(summary)
	default:
		log.Fatalf("unknown method %q", *method)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, out, 0644); err != nil {
			log.Fatalf("write output: %v", err)
		}
	} else {
		fmt.Println(string(out))
	}

	if *reportPath != "" {
		if md == "" {
			log.Fatal("markdown report is only available with -method all")
		}
		if !report.Valid(md) {
			log.Fatal("generated report does not parse as Markdown")
		}
		if err := os.WriteFile(*reportPath, []byte(md), 0644); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

func loadRecord(code, file, dataDir string) (*models.StockRecord, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read record file: %w", err)
		}
		return contract.Decode(data)
	}
	st, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st.LatestRecord(code)
}
