package htmltree

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/robertmeta/tvfixtures/model"
	"github.com/robertmeta/tvfixtures/scrape"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// PageSource fetches the schedule page itself instead of going through the
// scraping service. URLPattern holds one %s for the site, default "https://%s/".
type PageSource struct {
	URLPattern string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
}

// Fetch downloads and converts the site's page. Failures wrap scrape.ErrTransport
// so callers treat both sources alike.
func (p *PageSource) Fetch(ctx context.Context, site string) (*model.Node, error) {
	pattern := p.URLPattern
	if pattern == "" {
		pattern = "https://%s/"
	}
	pageURL := fmt.Sprintf(pattern, strings.TrimSpace(site))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", scrape.ErrTransport, err)
	}
	ua := p.UserAgent
	if ua == "" {
		ua = browserUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", scrape.ErrTransport, pageURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &scrape.StatusError{URL: pageURL, Status: res.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", scrape.ErrTransport, pageURL, err)
	}
	root, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", scrape.ErrTransport, pageURL, err)
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("page fetched", "url", pageURL, "fixtures", doc.Find("div[class^=div_partido]").Length())
	return root, nil
}
