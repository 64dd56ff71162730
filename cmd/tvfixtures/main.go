package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/tvfixtures/api"
	"github.com/robertmeta/tvfixtures/extract"
	"github.com/robertmeta/tvfixtures/filter"
	"github.com/robertmeta/tvfixtures/htmltree"
	"github.com/robertmeta/tvfixtures/model"
	"github.com/robertmeta/tvfixtures/scrape"
	"github.com/robertmeta/tvfixtures/session"
	"github.com/robertmeta/tvfixtures/store"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

var selectionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "date",
		Usage: "Filter by date (YYYY-MM-DD)",
	},
	&cli.StringFlag{
		Name:    "competition",
		Aliases: []string{"c"},
		Usage:   "Filter by competition",
	},
	&cli.StringFlag{
		Name:    "team",
		Aliases: []string{"t"},
		Usage:   "Filter by home or away team",
	},
	&cli.StringFlag{
		Name:  "tv",
		Usage: "Filter by broadcaster (substring)",
	},
}

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "tvfixtures",
		Usage:   "Football on TV: scrape the broadcast schedule and filter it",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Aliases: []string{"b"},
				Usage:   "Scraping service base URL",
				EnvVars: []string{"TVFIXTURES_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "site",
				Value:   scrape.DefaultSite,
				Usage:   "Schedule site to scrape",
				EnvVars: []string{"TVFIXTURES_SITE"},
			},
			&cli.StringFlag{
				Name:    "timezone",
				Value:   "Europe/Madrid",
				Usage:   "Time zone of the schedule's dates",
				EnvVars: []string{"TVFIXTURES_TIMEZONE"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   30 * time.Second,
				Usage:   "HTTP timeout",
				EnvVars: []string{"TVFIXTURES_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:    "direct",
				Usage:   "Fetch the schedule page directly instead of using the scraping service",
				EnvVars: []string{"TVFIXTURES_DIRECT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"TVFIXTURES_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format (text, json)",
				EnvVars: []string{"TVFIXTURES_LOG_FORMAT"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch the schedule and print every matchday",
				Action: fetchMatchdays,
			},
			{
				Name:   "list",
				Usage:  "Fetch the schedule and print the matchdays passing the filters",
				Flags:  selectionFlags,
				Action: listMatchdays,
			},
			{
				Name:   "filters",
				Usage:  "Fetch the schedule and print the available filter values",
				Action: listFilters,
			},
			{
				Name:      "parse",
				Usage:     "Read a saved page (HTML or service JSON) and print its matchdays",
				ArgsUsage: "<file>",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "vocabulary",
						Usage: "Print the filter values instead of the matchdays",
					},
				}, selectionFlags...),
				Action: parseFile,
			},
			{
				Name:  "serve",
				Usage: "Serve the schedule as a JSON API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Value:   ":8080",
						Usage:   "Listen address",
						EnvVars: []string{"TVFIXTURES_ADDR"},
					},
					&cli.DurationFlag{
						Name:  "debounce",
						Value: session.DefaultDebounce,
						Usage: "Delay between a selection change and filtering",
					},
					&cli.DurationFlag{
						Name:  "refresh",
						Value: 30 * time.Minute,
						Usage: "Reload interval (0 disables periodic reloads)",
					},
				},
				Action: serve,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return cli.Exit(fmt.Sprintf("Invalid log level: %v", err), ExitUsageError)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		return cli.Exit("Invalid log format: use text or json", ExitUsageError)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func getLocation(c *cli.Context) (*time.Location, error) {
	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Invalid time zone: %v", err), ExitUsageError)
	}
	return loc, nil
}

func getSource(c *cli.Context) (scrape.Source, error) {
	httpClient := &http.Client{Timeout: c.Duration("timeout")}
	if c.Bool("direct") {
		return &htmltree.PageSource{HTTPClient: httpClient}, nil
	}
	if c.String("base-url") == "" {
		return nil, cli.Exit("Scraping service URL is not set: use --base-url, TVFIXTURES_BASE_URL or --direct", ExitUsageError)
	}
	return scrape.NewClient(scrape.Config{
		BaseURL:    c.String("base-url"),
		HTTPClient: httpClient,
	}), nil
}

func getSelection(c *cli.Context, loc *time.Location) (model.Selection, error) {
	sel, err := filter.BuildSelection(c.String("date"), c.String("competition"), c.String("team"), c.String("tv"), loc)
	if err != nil {
		return sel, cli.Exit(fmt.Sprintf("Invalid filter: %v", err), ExitUsageError)
	}
	return sel, nil
}

// loadMatchdays fetches the configured site and extracts its matchdays.
func loadMatchdays(c *cli.Context) ([]model.Matchday, error) {
	loc, err := getLocation(c)
	if err != nil {
		return nil, err
	}
	src, err := getSource(c)
	if err != nil {
		return nil, err
	}

	root, err := src.Fetch(c.Context, c.String("site"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Failed to fetch schedule: %v", err), ExitDataError)
	}

	days, _, err := extract.Parse(root, loc, slog.Default())
	if err != nil {
		slog.Warn("no fixtures found", "site", c.String("site"), "error", err)
	}
	return days, nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func fetchMatchdays(c *cli.Context) error {
	days, err := loadMatchdays(c)
	if err != nil {
		return err
	}
	return outputJSON(days)
}

func listMatchdays(c *cli.Context) error {
	loc, err := getLocation(c)
	if err != nil {
		return err
	}
	sel, err := getSelection(c, loc)
	if err != nil {
		return err
	}
	days, err := loadMatchdays(c)
	if err != nil {
		return err
	}

	filtered := filter.Apply(days, sel)
	return outputJSON(map[string]interface{}{
		"count":     len(filtered),
		"selection": sel,
		"matchdays": filtered,
	})
}

func listFilters(c *cli.Context) error {
	days, err := loadMatchdays(c)
	if err != nil {
		return err
	}
	return outputJSON(filter.BuildVocabulary(days))
}

func parseFile(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: tvfixtures parse <file>", ExitUsageError)
	}
	loc, err := getLocation(c)
	if err != nil {
		return err
	}
	sel, err := getSelection(c, loc)
	if err != nil {
		return err
	}

	path := c.Args().Get(0)
	file, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open file: %v", err), ExitDataError)
	}
	defer file.Close()

	var root *model.Node
	if strings.EqualFold(filepath.Ext(path), ".json") {
		root, err = scrape.Decode(file)
	} else {
		root, err = htmltree.Parse(file)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to read page: %v", err), ExitDataError)
	}

	days, stats, err := extract.Parse(root, loc, slog.Default())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to extract matchdays: %v", err), ExitDataError)
	}

	if c.Bool("vocabulary") {
		return outputJSON(filter.BuildVocabulary(days))
	}
	filtered := filter.Apply(days, sel)
	return outputJSON(map[string]interface{}{
		"count":     len(filtered),
		"skipped":   stats,
		"matchdays": filtered,
	})
}

func serve(c *cli.Context) error {
	loc, err := getLocation(c)
	if err != nil {
		return err
	}
	src, err := getSource(c)
	if err != nil {
		return err
	}

	st, err := store.New(loc)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer st.Close()

	sess, err := session.New(session.Config{
		Source:   src,
		Store:    st,
		Site:     c.String("site"),
		Location: loc,
		Debounce: c.Duration("debounce"),
		Logger:   slog.Default(),
	})
	if err != nil {
		return cli.Exit(err.Error(), ExitGeneralError)
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go refreshLoop(ctx, sess, c.Duration("refresh"))

	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           api.NewRouter(sess, loc, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "addr", srv.Addr, "site", c.String("site"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return cli.Exit(fmt.Sprintf("Server failed: %v", err), ExitGeneralError)
	}
	return nil
}

// refreshLoop loads once immediately, then on every tick until ctx ends.
func refreshLoop(ctx context.Context, sess *session.Session, every time.Duration) {
	if err := sess.Load(ctx); err != nil {
		slog.Error("initial load failed", "error", err)
	}
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sess.Load(ctx); err != nil {
				slog.Error("reload failed", "error", err)
			}
		}
	}
}
