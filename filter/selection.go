package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robertmeta/tvfixtures/model"
)

// ErrInvalidDate is returned when a date filter is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a YYYY-MM-DD date filter in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

// BuildSelection constructs a Selection from flag or query values.
// An empty value leaves its dimension unset.
func BuildSelection(date, competition, team, tv string, loc *time.Location) (model.Selection, error) {
	var sel model.Selection

	if date != "" {
		d, err := ParseDate(date, loc)
		if err != nil {
			return sel, err
		}
		sel.Date = &d
	}
	sel.Competition = optional(competition)
	sel.Team = optional(team)
	sel.TV = optional(tv)

	return sel, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
