// Command screen filters a market snapshot by numeric ranges and ranks the
// survivors with the policy composite score.
//
// Input is a JSON array of candidate rows, typically exported from the
// provider's daily_basic table joined with the latest indicators.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"ashare_analysis/pkg/core/jsonutil"
	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/core/screener"
)

func main() {
	input := flag.String("input", "", "candidate snapshot JSON file")
	output := flag.String("output", "", "write results JSON here instead of stdout")
	policyFile := flag.String("policy", "", "optional policy file (hjson/yaml)")
	sortBy := flag.String("sort", "score", "sort key: score|pe|pb|market_cap")
	topN := flag.Int("top", 0, "keep only the top N results (0 = all)")

	peMax := optFloat("pe-max", "maximum PE (TTM)")
	peMin := optFloat("pe-min", "minimum PE (TTM)")
	pbMax := optFloat("pb-max", "maximum PB")
	roeMin := optFloat("roe-min", "minimum ROE %")
	debtMax := optFloat("debt-max", "maximum debt ratio %")
	dividendMin := optFloat("dividend-min", "minimum dividend yield %")
	mcapMin := optFloat("mcap-min", "minimum market cap (亿元)")
	mcapMax := optFloat("mcap-max", "maximum market cap (亿元)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	pol, err := policy.LoadFile(*policyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var candidates []screener.Candidate
	if err := jsonutil.DecodeLenient(data, &candidates); err != nil {
		log.Fatalf("decode candidates: %v", err)
	}

	filters := screener.Filters{}
	addRange(filters, screener.MetricPE, peMin.value, peMax.value)
	addRange(filters, screener.MetricPB, nil, pbMax.value)
	addRange(filters, screener.MetricROE, roeMin.value, nil)
	addRange(filters, screener.MetricDebtRatio, nil, debtMax.value)
	addRange(filters, screener.MetricDividendYield, dividendMin.value, nil)
	addRange(filters, screener.MetricMarketCap, mcapMin.value, mcapMax.value)

	engine := screener.New(pol.Screener)
	results := engine.Screen(candidates, filters, screener.SortKey(*sortBy), *topN)

	out, err := json.MarshalIndent(map[string]any{
		"total":   len(results),
		"filters": filters,
		"results": results,
	}, "", "  ")
	if err != nil {
		log.Fatalf("marshal results: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, out, 0644); err != nil {
			log.Fatalf("write output: %v", err)
		}
		fmt.Printf("wrote %d results to %s\n", len(results), *output)
		return
	}
	fmt.Println(string(out))
}

func addRange(f screener.Filters, metric string, min, max *float64) {
	if min == nil && max == nil {
		return
	}
	f[metric] = screener.Range{Min: min, Max: max}
}

// optFloat is a float flag that knows whether it was set, so "0" and "absent"
// stay distinguishable.
type optFloatFlag struct {
	value *float64
}

func (o *optFloatFlag) String() string {
	if o.value == nil {
		return ""
	}
	return fmt.Sprintf("%g", *o.value)
}

func (o *optFloatFlag) Set(s string) error {
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

func optFloat(name, usage string) *optFloatFlag {
	o := &optFloatFlag{}
	flag.Var(o, name, usage)
	return o
}
