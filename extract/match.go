package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/robertmeta/tvfixtures/model"
)

var tvSeparator = regexp.MustCompile(`\s*/\s*`)

// timeLayouts are tried in order against the fixture's time text.
var timeLayouts = []string{"15:04:05", "15:04"}

// ExtractMatch reads one fixture block. Every field is resolved on its own;
// a missing piece leaves that field at its zero value.
func ExtractMatch(fixture *model.Node, day time.Time) model.Match {
	return model.Match{
		Date:        matchTime(day, ruleFor(FieldTime).Resolve(fixture)),
		Competition: ruleFor(FieldCompetition).Resolve(fixture),
		Flag:        ruleFor(FieldFlag).Resolve(fixture),
		TV:          splitTV(ruleFor(FieldTV).Resolve(fixture)),
		HomeTeam:    ruleFor(FieldHomeTeam).Resolve(fixture),
		AwayTeam:    ruleFor(FieldAwayTeam).Resolve(fixture),
		CalendarURL: ruleFor(FieldCalendarURL).Resolve(fixture),
	}
}

// matchTime places the time text on the matchday's calendar day. Text that
// does not parse leaves the match at midnight of that day.
func matchTime(day time.Time, text string) time.Time {
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	if text == "" {
		return midnight
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location())
	}
	return midnight
}

func splitTV(text string) []string {
	tvs := []string{}
	if text == "" {
		return tvs
	}
	for _, tok := range tvSeparator.Split(text, -1) {
		if tok = strings.TrimSpace(tok); tok != "" {
			tvs = append(tvs, tok)
		}
	}
	return tvs
}
