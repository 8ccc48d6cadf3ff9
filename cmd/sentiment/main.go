// Command sentiment fetches recent headlines for a ticker (or reads them
// from a file) and tags them against the policy lexicons.
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
	"ashare_analysis/pkg/core/sentiment"
	"ashare_analysis/pkg/models"
)

func main() {
	code := flag.String("code", "", "stock code to fetch news for")
	name := flag.String("name", "", "company name, improves news search recall")
	file := flag.String("file", "", "read news items from a JSON file instead of fetching")
	policyFile := flag.String("policy", "", "optional policy file (hjson/yaml)")
	output := flag.String("output", "", "write report JSON here instead of stdout")
	flag.Parse()

	if *code == "" && *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	pol, err := policy.LoadFile(*policyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}

	items, err := loadItems(*code, *name, *file)
	if err != nil {
		log.Fatal(err)
	}

	analyzer := sentiment.NewAnalyzer(pol.Sentiment)
	rep := analyzer.Analyze(items)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, out, 0644); err != nil {
			log.Fatalf("write output: %v", err)
		}
		return
	}
	fmt.Println(string(out))
}

func loadItems(code, name, file string) ([]models.NewsItem, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read news file: %w", err)
		}
		var items []models.NewsItem
		if err := jsonutil.DecodeLenient(data, &items); err != nil {
			return nil, fmt.Errorf("decode news file: %w", err)
		}
		return items, nil
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, assuming environment variables are set")
	}
	client := ingest.NewNewsClient()
	items, err := client.Fetch(context.Background(), ingest.Normalize(code), name)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	return items, nil
}
