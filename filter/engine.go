package filter

import (
	"github.com/robertmeta/tvfixtures/model"
)

// MatchPasses reports whether m is shown under sel.
//
// The dimensions are alternatives, checked in a fixed order: a match passes
// when it satisfies any one set dimension. Date is consulted last.
func MatchPasses(m model.Match, sel model.Selection) bool {
	switch {
	case sel.IsEmpty():
		return true
	case model.IsSet(sel.Competition) && *sel.Competition == m.Competition:
		return true
	case model.IsSet(sel.Team) && (*sel.Team == m.HomeTeam || *sel.Team == m.AwayTeam):
		return true
	case model.IsSet(sel.TV) && m.HasTV(*sel.TV):
		return true
	}
	return sel.Date != nil && model.SameDay(m.Date, *sel.Date)
}

// MatchdayPasses reports whether d is shown under sel. A matchday on the
// selected date is always shown; otherwise it needs one passing match.
func MatchdayPasses(d model.Matchday, sel model.Selection) bool {
	if sel.Date != nil && model.SameDay(d.Date, *sel.Date) {
		return true
	}
	if sel.IsEmpty() {
		return true
	}
	for _, m := range d.Matches {
		if MatchPasses(m, sel) {
			return true
		}
	}
	return false
}

// Apply returns copies of the matchdays that pass sel, each holding only its
// passing matches. days is not modified.
func Apply(days []model.Matchday, sel model.Selection) []model.Matchday {
	out := []model.Matchday{}
	for _, d := range days {
		if !MatchdayPasses(d, sel) {
			continue
		}
		kept := model.Matchday{Date: d.Date, Matches: []model.Match{}}
		for _, m := range d.Matches {
			if MatchPasses(m, sel) {
				kept.Matches = append(kept.Matches, m.Clone())
			}
		}
		out = append(out, kept)
	}
	return out
}
