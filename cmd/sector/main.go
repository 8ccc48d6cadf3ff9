// Command sector fetches every ticker of the requested sub-sectors, scores
// them on the shared ladder table and writes an aggregated snapshot.
//
// Sector membership comes from a JSON file mapping sector name to codes:
//
//	{"白酒": ["600519", "000858"], "银行": ["601398"]}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ashare_analysis/pkg/core/ingest"
	"ashare_analysis/pkg/core/jsonutil"
	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/core/report"
	"ashare_analysis/pkg/core/sector"
	"ashare_analysis/pkg/core/store"
)

func main() {
	sectorsFile := flag.String("sectors", "", "JSON file mapping sector name to codes")
	dataDir := flag.String("data-dir", "data", "snapshot directory")
	policyFile := flag.String("policy", "", "optional policy file (hjson/yaml)")
	offline := flag.Bool("offline", false, "score stored snapshots instead of fetching")
	output := flag.String("output", "", "write snapshot JSON here instead of stdout")
	reportPath := flag.String("report", "", "also write a Markdown report here")
	flag.Parse()

	if *sectorsFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	pol, err := policy.LoadFile(*policyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}

	data, err := os.ReadFile(*sectorsFile)
	if err != nil {
		log.Fatalf("read sectors file: %v", err)
	}
	var sectors map[string][]string
	if err := jsonutil.DecodeLenient(data, &sectors); err != nil {
		log.Fatalf("decode sectors file: %v", err)
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	var fetcher *ingest.Fetcher
	if !*offline {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file, assuming environment variables are set")
		}
		token := os.Getenv("TUSHARE_TOKEN")
		if token == "" {
			log.Fatal("TUSHARE_TOKEN is not set (or use -offline with stored snapshots)")
		}
		fetcher = ingest.NewFetcher(ingest.NewClient(token), nil)
	}

	ctx := context.Background()
	universe := map[string][]sector.Member{}
	for name, codes := range sectors {
		for _, code := range codes {
			universe[name] = append(universe[name], loadMember(ctx, fetcher, st, code))
		}
	}

	agg := sector.NewAggregator(pol.Sector)
	snap := agg.Aggregate(universe)

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatalf("marshal snapshot: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, out, 0644); err != nil {
			log.Fatalf("write output: %v", err)
		}
	} else {
		fmt.Println(string(out))
	}

	if *reportPath != "" {
		md := report.Sector(snap)
		if !report.Valid(md) {
			log.Fatal("generated report does not parse as Markdown")
		}
		if err := os.WriteFile(*reportPath, []byte(md), 0644); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

func loadMember(ctx context.Context, fetcher *ingest.Fetcher, st *store.Store, code string) sector.Member {
	if fetcher == nil {
		rec, err := st.LatestRecord(code)
		return sector.Member{Code: code, Record: rec, Err: err}
	}
	rec, err := fetcher.FetchRecord(ctx, code)
	if err == nil {
		if _, saveErr := st.SaveRecord(rec); saveErr != nil {
			log.Printf("save %s failed: %v", code, saveErr)
		}
	}
	return sector.Member{Code: code, Record: rec, Err: err}
}
