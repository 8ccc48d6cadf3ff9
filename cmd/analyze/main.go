// Command analyze runs the financial analyzer over stored stock records:
// ratio sections, DuPont decomposition, anomaly findings and the weighted
// composite score. Multiple codes produce a comparison ranking.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ashare_analysis/pkg/core/analysis"
	"ashare_analysis/pkg/core/contract"
	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/core/report"
	"ashare_analysis/pkg/core/store"
	"ashare_analysis/pkg/models"
)

func main() {
	codes := flag.String("codes", "", "comma-separated stock codes")
	file := flag.String("file", "", "analyze one record file instead of stored snapshots")
	dataDir := flag.String("data-dir", "data", "snapshot directory")
	level := flag.String("level", analysis.LevelStandard, "analysis depth: summary|standard|deep")
	policyFile := flag.String("policy", "", "optional policy file (hjson/yaml)")
	output := flag.String("output", "", "write result JSON here instead of stdout")
	reportPath := flag.String("report", "", "also write a Markdown report here")
	flag.Parse()

	if *codes == "" && *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	pol, err := policy.LoadFile(*policyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}
	analyzer := analysis.New(pol.Analyzer)

	records, err := loadRecords(*codes, *file, *dataDir)
	if err != nil {
		log.Fatal(err)
	}

	var doc any
	var md string
	if len(records) == 1 {
		summary := analyzer.Summarize(records[0], *level)
		doc = summary
		md = report.Analysis(summary)
	} else {
		doc = analyzer.Compare(records)
	}

	if err := emit(doc, *output); err != nil {
		log.Fatal(err)
	}
	if *reportPath != "" {
		if md == "" {
			log.Fatal("markdown report is only available for single-stock analysis")
		}
		if !report.Valid(md) {
			log.Fatal("generated report does not parse as Markdown")
		}
		if err := os.WriteFile(*reportPath, []byte(md), 0644); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

// loadRecords resolves the input records, validating each against the data
// contract. The analyzer needs the indicator section.
func loadRecords(codes, file, dataDir string) ([]*models.StockRecord, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read record file: %w", err)
		}
		rec, err := contract.Decode(data, "financial_indicators")
		if err != nil {
			return nil, err
		}
		return []*models.StockRecord{rec}, nil
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	var records []*models.StockRecord
	for _, code := range strings.Split(codes, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		rec, err := st.LatestRecord(code)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to analyze")
	}
	return records, nil
}

func emit(doc any, output string) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if output != "" {
		return os.WriteFile(output, out, 0644)
	}
	fmt.Println(string(out))
	return nil
}
