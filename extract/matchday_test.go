package extract

import (
	"encoding/json"
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/robertmeta/tvfixtures/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatchdays_SingleFixture(t *testing.T) {
	fx := model.El("div", cls("div_partido"),
		model.El("div", cls("div_hora"), "21:00:00"),
		model.El("div", cls("div_equipo1"), model.El("span", nil, "Team A")),
		model.El("div", cls("div_equipo2"), model.El("span", nil, "Team B")),
		model.El("div", cls("div_cadena nomovil2"), model.El("span", nil, "DAZN / Movistar")),
	)

	days, stats := BuildMatchdays(children(header("2024-05-10"), fx), time.UTC, nil)

	require.Len(t, days, 1)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), days[0].Date)
	require.Len(t, days[0].Matches, 1)

	m := days[0].Matches[0]
	assert.Equal(t, time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "Team A", m.HomeTeam)
	assert.Equal(t, "Team B", m.AwayTeam)
	assert.Equal(t, []string{"DAZN", "Movistar"}, m.TV)
	assert.Equal(t, BuildStats{}, stats)
}

func TestBuildMatchdays_GroupsUnderLatestHeader(t *testing.T) {
	list := children(
		header("2024-05-10"),
		fixture("21:00:00", "LaLiga", "", "A", "B", "DAZN", ""),
		model.El("div", cls("publicidad"), "ad"),
		fixture("22:00:00", "LaLiga", "", "C", "D", "DAZN", ""),
		header("2024-05-11"),
		header("2024-05-12"),
		fixture("12:00:00", "Serie A", "", "E", "F", "GOL", ""),
	)

	days, _ := BuildMatchdays(list, time.UTC, nil)

	require.Len(t, days, 3)
	assert.Len(t, days[0].Matches, 2)
	assert.Empty(t, days[1].Matches)
	require.Len(t, days[2].Matches, 1)
	assert.Equal(t, "E", days[2].Matches[0].HomeTeam)
	assert.Equal(t, time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC), days[2].Matches[0].Date)
}

func TestBuildMatchdays_FixtureClassPrefix(t *testing.T) {
	list := children(
		header("2024-05-10"),
		fixture("21:00:00", "LaLiga", "", "A", "B", "DAZN", ""),
	)
	list[1].Element.Attrs["class"] = "div_partido destacado"
	list = append(list, model.ElementChild(model.El("span", cls("div_partido"), "not a div")))

	days, _ := BuildMatchdays(list, time.UTC, nil)

	require.Len(t, days, 1)
	assert.Len(t, days[0].Matches, 1)
}

func TestBuildMatchdays_OrphanFixtureSkipped(t *testing.T) {
	list := children(
		fixture("20:00:00", "LaLiga", "", "X", "Y", "DAZN", ""),
		header("2024-05-10"),
		fixture("21:00:00", "LaLiga", "", "A", "B", "DAZN", ""),
	)

	days, stats := BuildMatchdays(list, time.UTC, nil)

	require.Len(t, days, 1)
	require.Len(t, days[0].Matches, 1)
	assert.Equal(t, "A", days[0].Matches[0].HomeTeam)
	assert.Equal(t, 1, stats.Orphans)
}

func TestBuildMatchdays_HeaderRules(t *testing.T) {
	dated := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		href       string
		wantDays   int
		wantDate   time.Time
		wantBad    int
		wantOrphan int
	}{
		{"query parameter", "?fecha=2024-05-10", 1, dated, 0, 0},
		{"path and query", "/programacion?fecha=2024-05-10", 1, dated, 0, 0},
		{"further parameters", "?fecha=2024-05-10&page=1", 1, dated, 0, 0},
		{"fragment", "?fecha=2024-05-10#hoy", 1, dated, 0, 0},
		{"timestamp suffix", "?fecha=2024-05-10T00:00", 1, dated, 0, 0},
		{"no equals sign is not a header", "/programacion", 0, time.Time{}, 0, 1},
		{"not a date", "?fecha=manana", 1, time.Time{}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := children(
				model.El("a", map[string]string{"href": tt.href}),
				fixture("21:00:00", "LaLiga", "", "A", "B", "DAZN", ""),
			)
			days, stats := BuildMatchdays(list, time.UTC, nil)
			require.Len(t, days, tt.wantDays)
			assert.Equal(t, tt.wantBad, stats.BadHeaders)
			assert.Equal(t, tt.wantOrphan, stats.Orphans)
			if tt.wantDays > 0 {
				assert.Equal(t, tt.wantDate, days[0].Date)
				require.Len(t, days[0].Matches, 1)
				assert.Equal(t, "A", days[0].Matches[0].HomeTeam)
			}
		})
	}
}

func TestBuildMatchdays_BadHeaderKeepsFollowingFixtures(t *testing.T) {
	list := children(
		header("2024-05-10"),
		fixture("21:00:00", "LaLiga", "", "A", "B", "DAZN", ""),
		header("not-a-date"),
		fixture("22:00:00", "LaLiga", "", "C", "D", "DAZN", ""),
		header("2024-05-11"),
		fixture("12:00:00", "LaLiga", "", "E", "F", "DAZN", ""),
	)

	days, stats := BuildMatchdays(list, time.UTC, nil)

	require.Len(t, days, 3)
	assert.Len(t, days[0].Matches, 1)
	assert.True(t, days[1].Date.IsZero())
	require.Len(t, days[1].Matches, 1)
	assert.Equal(t, "C", days[1].Matches[0].HomeTeam)
	assert.Equal(t, "E", days[2].Matches[0].HomeTeam)
	assert.Equal(t, BuildStats{BadHeaders: 1}, stats)
}

func TestBuildMatchdays_IgnoresTextAndEmptyInput(t *testing.T) {
	days, stats := BuildMatchdays(nil, nil, nil)
	assert.Empty(t, days)
	assert.Equal(t, BuildStats{}, stats)

	list := []model.Child{model.TextChild("\n"), {}, model.ElementChild(header("2024-05-10"))}
	days, _ = BuildMatchdays(list, time.UTC, nil)
	assert.Len(t, days, 1)
}

func TestBuildMatchdays_UsesLocation(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	list := children(header("2024-05-10"), fixture("21:00:00", "", "", "A", "B", "", ""))
	days, _ := BuildMatchdays(list, madrid, nil)

	require.Len(t, days, 1)
	m := days[0].Matches[0]
	assert.Equal(t, madrid, m.Date.Location())
	assert.Equal(t, "2024-05-10T21:00:00+02:00", m.Date.Format(time.RFC3339))
}

func TestParse_Testdata(t *testing.T) {
	data, err := os.ReadFile("../testdata/schedule.json")
	require.NoError(t, err)

	var payload struct {
		HTML *model.Node `json:"html"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))

	days, stats, err := Parse(payload.HTML, time.UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, BuildStats{}, stats)

	require.Len(t, days, 2)
	require.Len(t, days[0].Matches, 2)
	require.Len(t, days[1].Matches, 2)

	first := days[0].Matches[0]
	assert.Equal(t, "Real Madrid", first.HomeTeam)
	assert.Equal(t, "Sevilla", first.AwayTeam)
	assert.Equal(t, "LaLiga EA Sports", first.Competition)
	assert.Equal(t, "https://img.example/es.png", first.Flag)
	assert.Equal(t, []string{"DAZN", "Movistar LaLiga"}, first.TV)
	assert.Equal(t, "https://cal.example/1.ics", first.CalendarURL)
	assert.Equal(t, time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC), first.Date)

	assert.Equal(t, "Arsenal", days[0].Matches[1].HomeTeam)
	assert.Equal(t, time.Date(2024, 5, 11, 20, 0, 0, 0, time.UTC), days[1].Matches[1].Date)
}

func TestParse_NoContainer(t *testing.T) {
	root := model.El("html", nil, model.El("body", nil, model.El("div", cls("col-md-8"))))

	days, _, err := Parse(root, time.UTC, nil)
	assert.ErrorIs(t, err, ErrNoFixtureContainer)
	assert.Empty(t, days)
}
