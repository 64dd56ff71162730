// Package scrape fetches parsed schedule pages from the scraping service.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/robertmeta/tvfixtures/model"
)

// DefaultSite is the schedule site scraped when none is configured.
const DefaultSite = "futbolenlatele.com"

const defaultUserAgent = "tvfixtures/0.1 (+https://github.com/robertmeta/tvfixtures)"

var (
	// ErrTransport wraps every failure to obtain a payload.
	ErrTransport = errors.New("scrape transport failure")
	// ErrEmptyPayload is returned when the payload has no html tree.
	ErrEmptyPayload = errors.New("scrape payload has no html tree")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Source yields the parsed page tree of a site.
type Source interface {
	Fetch(ctx context.Context, site string) (*model.Node, error)
}

// StatusError reports a non-2xx response from the scraping service.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// Payload is the service response: the page's root node under "html".
type Payload struct {
	HTML *model.Node `json:"html"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Logger     *slog.Logger
}

// Client talks to the scraping service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: httpClient,
		userAgent:  ua,
		logger:     logger,
	}
}

// Fetch retrieves the parsed page tree of site: GET {baseURL}/scrape/{site}.
func (c *Client) Fetch(ctx context.Context, site string) (*model.Node, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is not configured", ErrTransport)
	}
	endpoint := c.baseURL + "/scrape/" + url.PathEscape(site)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransport, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: endpoint, Status: resp.StatusCode}
	}

	root, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("scrape fetched", "url", endpoint, "elapsed", time.Since(start))
	return root, nil
}

// Decode reads a service payload and returns its html tree.
func Decode(r io.Reader) (*model.Node, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", ErrTransport, err)
	}
	if p.HTML == nil {
		return nil, ErrEmptyPayload
	}
	return p.HTML, nil
}
