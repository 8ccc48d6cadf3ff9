// Command fetch pulls full stock records from the Tushare Pro API and stores
// them as JSON snapshots. The token comes from TUSHARE_TOKEN, loaded from the
// environment or a local .env file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"ashare_analysis/pkg/core/ingest"
	"ashare_analysis/pkg/core/policy"
	"ashare_analysis/pkg/core/sentiment"
	"ashare_analysis/pkg/core/store"
	"ashare_analysis/pkg/models"
)

func main() {
	codes := flag.String("codes", "", "comma-separated stock codes, e.g. 600519,000001")
	dataDir := flag.String("data-dir", "data", "snapshot directory")
	policyFile := flag.String("policy", "", "optional policy file (hjson/yaml)")
	withNews := flag.Bool("news", true, "fetch and score recent news")
	flag.Parse()

	if *codes == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, assuming environment variables are set")
	}
	token := os.Getenv("TUSHARE_TOKEN")
	if token == "" {
		log.Fatal("TUSHARE_TOKEN is not set")
	}

	pol, err := policy.LoadFile(*policyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	var news *ingest.NewsClient
	if *withNews {
		news = ingest.NewNewsClient()
	}
	fetcher := ingest.NewFetcher(ingest.NewClient(token), news)
	analyzer := sentiment.NewAnalyzer(pol.Sentiment)
	fetcher.ScoreNews = func(items []models.NewsItem) *models.NewsSentiment {
		return analyzer.Summarize(items)
	}

	ctx := context.Background()
	failed := 0
	for _, code := range strings.Split(*codes, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		rec, err := fetcher.FetchRecord(ctx, code)
		if err != nil {
			log.Printf("fetch %s failed: %v", code, err)
			failed++
			continue
		}
		path, err := st.SaveRecord(rec)
		if err != nil {
			log.Printf("save %s failed: %v", code, err)
			failed++
			continue
		}
		summary, _ := json.Marshal(map[string]any{
			"code": rec.Code, "name": rec.BasicInfo.Name, "path": path,
		})
		fmt.Println(string(summary))
	}
	if failed > 0 {
		os.Exit(1)
	}
}
