package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robertmeta/tvfixtures/model"
)

var (
	// ErrNoFixtureContainer is reported when the page lacks the fixtures container.
	ErrNoFixtureContainer = errors.New("fixtures container not found")
	// ErrOrphanFixture is reported for a fixture that precedes every date header.
	ErrOrphanFixture = errors.New("fixture before any date header")
	// ErrBadHeaderDate is reported for a date header whose date does not parse.
	ErrBadHeaderDate = errors.New("unparseable date header")
)

// BuildStats counts what BuildMatchdays skipped or could not date.
type BuildStats struct {
	Orphans    int `json:"orphans"`
	BadHeaders int `json:"bad_headers"`
}

// builder is the fold state threaded through the sibling list.
type builder struct {
	days    []model.Matchday
	current int // index into days, -1 when no header is active
	stats   BuildStats
}

// BuildMatchdays groups the fixture container's children into matchdays.
// Each date header opens a matchday; fixtures join the most recent one.
// Header dates are read in loc. A header whose date does not parse still
// opens a matchday, dated with the zero time.
func BuildMatchdays(children []model.Child, loc *time.Location, logger *slog.Logger) ([]model.Matchday, BuildStats) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	acc := builder{days: []model.Matchday{}, current: -1}
	for _, c := range children {
		if c.IsText || c.Element == nil {
			continue
		}
		acc = acc.step(c.Element, loc, logger)
	}
	return acc.days, acc.stats
}

func (b builder) step(n *model.Node, loc *time.Location, logger *slog.Logger) builder {
	switch {
	case isDateHeader(n):
		href, _ := n.Attr("href")
		day, err := headerDate(href, loc)
		if err != nil {
			logger.Warn("undated matchday", "href", href, "error", err)
			b.stats.BadHeaders++
			day = time.Time{}
		}
		b.days = append(b.days, model.Matchday{Date: day, Matches: []model.Match{}})
		b.current = len(b.days) - 1

	case isFixture(n):
		if b.current < 0 {
			logger.Warn("skipping fixture", "class", n.Class(), "error", ErrOrphanFixture)
			b.stats.Orphans++
			return b
		}
		d := &b.days[b.current]
		d.Matches = append(d.Matches, ExtractMatch(n, d.Date))
	}
	return b
}

func isDateHeader(n *model.Node) bool {
	if n.Tag != DateHeaderTag {
		return false
	}
	href, ok := n.Attr("href")
	return ok && strings.Contains(href, "=")
}

func isFixture(n *model.Node) bool {
	return n.Tag == FixtureTag && fixtureRule.Marks(n)
}

// headerDate reads the date leading the value after the first '=' of a
// header href, e.g. "?fecha=2024-05-10&page=1".
func headerDate(href string, loc *time.Location) (time.Time, error) {
	_, value, _ := strings.Cut(href, "=")
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "&#;"); i >= 0 {
		value = value[:i]
	}
	if len(value) > len(model.DateLayout) {
		value = value[:len(model.DateLayout)]
	}
	day, err := time.ParseInLocation(model.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadHeaderDate, value)
	}
	return day, nil
}

// Parse locates the fixtures container under root and builds its matchdays.
// A page without the container yields no matchdays and ErrNoFixtureContainer.
func Parse(root *model.Node, loc *time.Location, logger *slog.Logger) ([]model.Matchday, BuildStats, error) {
	containers := FindByClass(root, ContainerClass)
	if len(containers) == 0 {
		return []model.Matchday{}, BuildStats{}, ErrNoFixtureContainer
	}
	days, stats := BuildMatchdays(containers[0].Children, loc, logger)
	return days, stats, nil
}
