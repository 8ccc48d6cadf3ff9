package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ashare_analysis/pkg/models"
)

const (
	// NewsSearchURL is the Eastmoney news search list page.
	NewsSearchURL = "https://so.eastmoney.com/news/s"

	newsUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	defaultNewsLimit = 20
)

// NewsClient scrapes recent headlines for one ticker from the news search
// list page.
type NewsClient struct {
	httpClient *http.Client
	baseURL    string
	limit      int
}

func NewNewsClient() *NewsClient {
	return &NewsClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    NewsSearchURL,
		limit:      defaultNewsLimit,
	}
}

// Fetch returns up to the configured limit of headlines for the ticker. The
// company name gives better search recall than the bare code; the code is
// used when no name is known.
func (n *NewsClient) Fetch(ctx context.Context, code, name string) ([]models.NewsItem, error) {
	keyword := name
	if keyword == "" {
		keyword = code
	}

	reqURL := fmt.Sprintf("%s?keyword=%s", n.baseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create news request: %w", err)
	}
	req.Header.Set("User-Agent", newsUserAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{API: "news", Msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{API: "news", Msg: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{API: "news", Msg: fmt.Sprintf("parse list page: %v", err)}
	}
	return n.extract(doc), nil
}

// extract walks the result list. The page wraps each hit in a news_item div
// with the title link, source span and timestamp span.
func (n *NewsClient) extract(doc *goquery.Document) []models.NewsItem {
	var items []models.NewsItem
	doc.Find("div.news_item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("div.news_item_t a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		item := models.NewsItem{Title: title}
		item.URL, _ = link.Attr("href")
		item.Summary = strings.TrimSpace(sel.Find("div.news_item_c").Text())

		meta := strings.Fields(strings.TrimSpace(sel.Find("div.news_item_time").Text()))
		if len(meta) > 0 {
			item.Source = meta[0]
		}
		if len(meta) > 1 {
			item.PublishedAt = strings.Join(meta[1:], " ")
		}
		items = append(items, item)
		return len(items) < n.limit
	})
	return items
}
