// Package filter derives filter values from matchdays and applies selections to them.
package filter

import (
	"slices"

	"github.com/robertmeta/tvfixtures/model"
)

// BuildVocabulary collects one date label per matchday, in matchday order,
// and the distinct competitions, teams and broadcasters sorted ascending.
func BuildVocabulary(days []model.Matchday) model.Vocabulary {
	v := model.Vocabulary{
		Dates:        []string{},
		Competitions: []string{},
		Teams:        []string{},
		TVs:          []string{},
	}
	seenComp := map[string]bool{}
	seenTeam := map[string]bool{}
	seenTV := map[string]bool{}

	add := func(list *[]string, seen map[string]bool, s string) {
		if seen[s] {
			return
		}
		seen[s] = true
		*list = append(*list, s)
	}

	for _, d := range days {
		v.Dates = append(v.Dates, d.Date.Format(model.DateLayout))
		for _, m := range d.Matches {
			add(&v.Competitions, seenComp, m.Competition)
			add(&v.Teams, seenTeam, m.HomeTeam)
			add(&v.Teams, seenTeam, m.AwayTeam)
			for _, tv := range m.TV {
				add(&v.TVs, seenTV, tv)
			}
		}
	}

	slices.Sort(v.Competitions)
	slices.Sort(v.Teams)
	slices.Sort(v.TVs)
	return v
}
