package extract

import (
	"testing"
	"time"

	"github.com/robertmeta/tvfixtures/model"
	"github.com/stretchr/testify/assert"
)

var day = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func TestExtractMatch_AllFields(t *testing.T) {
	n := fixture("21:00:00", "LaLiga", "https://img/es.png", "Team A", "Team B", "DAZN / Movistar", "https://cal/1.ics")

	m := ExtractMatch(n, day)

	assert.Equal(t, time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "LaLiga", m.Competition)
	assert.Equal(t, "https://img/es.png", m.Flag)
	assert.Equal(t, []string{"DAZN", "Movistar"}, m.TV)
	assert.Equal(t, "Team A", m.HomeTeam)
	assert.Equal(t, "Team B", m.AwayTeam)
	assert.Equal(t, "https://cal/1.ics", m.CalendarURL)
}

func TestExtractMatch_MissingElementOnlyZeroesItsField(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		check  func(t *testing.T, m model.Match)
	}{
		{
			name:   "no time",
			marker: "div_hora",
			check: func(t *testing.T, m model.Match) {
				assert.Equal(t, day, m.Date)
				assert.Equal(t, "Team A", m.HomeTeam)
			},
		},
		{
			name:   "no competition block",
			marker: "div_campeonato",
			check: func(t *testing.T, m model.Match) {
				assert.Equal(t, "", m.Competition)
				assert.Equal(t, "", m.Flag)
				assert.Equal(t, []string{"DAZN"}, m.TV)
			},
		},
		{
			name:   "no home team",
			marker: "div_equipo1",
			check: func(t *testing.T, m model.Match) {
				assert.Equal(t, "", m.HomeTeam)
				assert.Equal(t, "Team B", m.AwayTeam)
			},
		},
		{
			name:   "no away team",
			marker: "div_equipo2",
			check: func(t *testing.T, m model.Match) {
				assert.Equal(t, "Team A", m.HomeTeam)
				assert.Equal(t, "", m.AwayTeam)
			},
		},
		{
			name:   "no broadcaster block",
			marker: "div_cadena nomovil2",
			check: func(t *testing.T, m model.Match) {
				assert.Equal(t, []string{}, m.TV)
				assert.Equal(t, "", m.CalendarURL)
				assert.Equal(t, "LaLiga", m.Competition)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := fixture("21:00:00", "LaLiga", "flag.png", "Team A", "Team B", "DAZN", "cal.ics")
			removeMarker(n, tt.marker)
			tt.check(t, ExtractMatch(n, day))
		})
	}
}

func TestExtractMatch_StructuralMismatch(t *testing.T) {
	// Competition block with only the flag: index 1 is out of range.
	// Team block whose first child is an element without text.
	// Team block holding bare text instead of an element.
	// Broadcaster span without a second child: no calendar link.
	n := model.El("div", cls("div_partido"),
		model.El("div", cls("div_hora"), model.El("b", nil, "20:45")),
		model.El("div", cls("div_campeonato"), model.El("img", nil)),
		model.El("div", cls("div_equipo1"), model.El("span", nil, model.El("i", nil, "deep"))),
		model.El("div", cls("div_equipo2"), "Team B"),
		model.El("div", cls("div_cadena nomovil2"), model.El("span", nil, "beIN")),
	)

	m := ExtractMatch(n, day)

	assert.Equal(t, time.Date(2024, 5, 10, 20, 45, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "", m.Competition)
	assert.Equal(t, "", m.Flag)
	assert.Equal(t, "", m.HomeTeam)
	assert.Equal(t, "", m.AwayTeam)
	assert.Equal(t, []string{"beIN"}, m.TV)
	assert.Equal(t, "", m.CalendarURL)
}

func TestExtractMatch_EmptyNode(t *testing.T) {
	m := ExtractMatch(&model.Node{}, day)

	assert.Equal(t, day, m.Date)
	assert.Equal(t, []string{}, m.TV)
	assert.Equal(t, "", m.Competition)
	assert.Equal(t, "", m.CalendarURL)
}

func TestMatchTime(t *testing.T) {
	tests := []struct {
		text   string
		expect time.Time
	}{
		{"21:00:00", time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC)},
		{"18:30", time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)},
		{"", day},
		{"TBD", day},
		{"25:00:00", day},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expect, matchTime(day, tt.text))
		})
	}
}

func TestSplitTV(t *testing.T) {
	tests := []struct {
		in     string
		expect []string
	}{
		{"DAZN / Movistar", []string{"DAZN", "Movistar"}},
		{"DAZN/Movistar LaLiga /  GOL", []string{"DAZN", "Movistar LaLiga", "GOL"}},
		{" / DAZN / ", []string{"DAZN"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expect, splitTV(tt.in))
		})
	}
}

func TestRule_Resolve(t *testing.T) {
	n := fixture("21:00:00", "LaLiga", "flag.png", "Team A", "Team B", "DAZN", "cal.ics")

	assert.Equal(t, "cal.ics", ruleFor(FieldCalendarURL).Resolve(n))
	assert.Equal(t, "", Rule{Field: "unknown"}.Resolve(n))
	assert.Equal(t, "21:00:00", Rule{Marker: "div_part", Mode: Prefix, Path: []int{0, 0}, Leaf: true}.Resolve(n))
	assert.Equal(t, "", Rule{Marker: "div_part", Mode: Prefix, Path: []int{0, 0}}.Resolve(n))
	assert.Equal(t, "21:00:00", Rule{Marker: "div_part", Mode: Prefix, Path: []int{0}}.Resolve(n))
	assert.Equal(t, "", Rule{Marker: "div_hora", Path: []int{5}}.Resolve(n))
	assert.Equal(t, "", Rule{Marker: "div_hora", Path: []int{0}, Attr: "href"}.Resolve(n))
}

func TestRule_TextLeafOnlyForTime(t *testing.T) {
	n := model.El("div", cls("div_partido"),
		model.El("div", cls("div_hora"), "19:00"),
		model.El("div", cls("div_campeonato"), model.El("img", nil), "LaLiga"),
		model.El("div", cls("div_equipo1"), "Team A"),
		model.El("div", cls("div_equipo2"), model.El("span", nil, "Team B")),
		model.El("div", cls("div_cadena nomovil2"), "DAZN"),
	)

	m := ExtractMatch(n, day)

	assert.Equal(t, time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "", m.Competition)
	assert.Equal(t, "", m.HomeTeam)
	assert.Equal(t, "Team B", m.AwayTeam)
	assert.Equal(t, []string{}, m.TV)

	wrapped := model.El("div", cls("div_partido"), model.El("div", cls("div_hora"), model.El("span", nil, "19:00")))
	assert.Equal(t, time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC), ExtractMatch(wrapped, day).Date)
}

func TestRule_Marks(t *testing.T) {
	assert.True(t, fixtureRule.Marks(model.El("div", cls("div_partido"))))
	assert.True(t, fixtureRule.Marks(model.El("div", cls("div_partido destacado"))))
	assert.False(t, fixtureRule.Marks(model.El("div", cls("partido"))))
	assert.False(t, fixtureRule.Marks(model.El("div", nil)))
	assert.False(t, fixtureRule.Marks(nil))

	exact := Rule{Marker: "div_hora"}
	assert.True(t, exact.Marks(model.El("div", cls("div_hora"))))
	assert.False(t, exact.Marks(model.El("div", cls("div_hora extra"))))
}

// removeMarker drops every direct child of n carrying class marker.
func removeMarker(n *model.Node, marker string) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if !c.IsText && c.Element.Class() == marker {
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
}
