package extract

import (
	"strings"

	"github.com/robertmeta/tvfixtures/model"
)

// Structural markers of the schedule page.
const (
	ContainerClass = "col-md-8 col-sm-6 partidos"
	FixturePrefix  = "div_partido"
	DateHeaderTag  = "a"
	FixtureTag     = "div"
)

// MatchMode selects how a rule's marker is compared with a class attribute.
type MatchMode int

const (
	Exact MatchMode = iota
	Prefix
)

// Field names the Match field a rule fills.
type Field string

const (
	FieldTime        Field = "time"
	FieldCompetition Field = "competition"
	FieldFlag        Field = "flag"
	FieldTV          Field = "tv"
	FieldHomeTeam    Field = "home_team"
	FieldAwayTeam    Field = "away_team"
	FieldCalendarURL Field = "calendar_url"
)

// Rule locates one field inside a fixture block: the first descendant
// carrying Marker, then Path as positional indexes into the mixed child
// list, then either the attribute Attr or the first text child of the
// element found there. With Leaf set the path may also end on a text leaf,
// which is then read as is.
type Rule struct {
	Field  Field
	Marker string
	Mode   MatchMode
	Path   []int
	Attr   string
	Leaf   bool
}

// fixtureRule recognizes fixture blocks by their class prefix.
var fixtureRule = Rule{Marker: FixturePrefix, Mode: Prefix}

// Rules is the fixture schema. Order matches the Match field order.
var Rules = []Rule{
	{Field: FieldTime, Marker: "div_hora", Path: []int{0}, Leaf: true},
	{Field: FieldCompetition, Marker: "div_campeonato", Path: []int{1}},
	{Field: FieldFlag, Marker: "div_campeonato", Path: []int{0}, Attr: "src"},
	{Field: FieldTV, Marker: "div_cadena nomovil2", Path: []int{0}},
	{Field: FieldHomeTeam, Marker: "div_equipo1", Path: []int{0}},
	{Field: FieldAwayTeam, Marker: "div_equipo2", Path: []int{0}},
	{Field: FieldCalendarURL, Marker: "div_cadena nomovil2", Path: []int{0, 1}, Attr: "href"},
}

// Resolve applies the rule to a fixture node and returns the raw string
// value, or "" when any step is missing.
func (r Rule) Resolve(fixture *model.Node) string {
	if r.Marker == "" {
		return ""
	}
	hits := r.find(fixture)
	if len(hits) == 0 {
		return ""
	}

	cur := model.ElementChild(hits[0])
	for _, idx := range r.Path {
		next, ok := childAt(cur, idx)
		if !ok {
			return ""
		}
		cur = next
	}

	if r.Attr != "" {
		if cur.IsText {
			return ""
		}
		v, _ := cur.Element.Attr(r.Attr)
		return strings.TrimSpace(v)
	}
	if cur.IsText {
		if !r.Leaf {
			return ""
		}
		return strings.TrimSpace(cur.Text)
	}
	return textOf(cur)
}

// Marks reports whether n's class attribute carries the rule's marker.
func (r Rule) Marks(n *model.Node) bool {
	class, ok := n.Attr("class")
	if !ok || r.Marker == "" {
		return false
	}
	if r.Mode == Prefix {
		return strings.HasPrefix(class, r.Marker)
	}
	return class == r.Marker
}

func (r Rule) find(root *model.Node) []*model.Node {
	if r.Mode == Prefix {
		return FindByClassPrefix(root, r.Marker)
	}
	return FindByClass(root, r.Marker)
}

func childAt(c model.Child, idx int) (model.Child, bool) {
	if c.IsText || c.Element == nil {
		return model.Child{}, false
	}
	if idx < 0 || idx >= len(c.Element.Children) {
		return model.Child{}, false
	}
	return c.Element.Children[idx], true
}

// textOf yields an element's first child when that child is text.
func textOf(c model.Child) string {
	if first, ok := childAt(c, 0); ok && first.IsText {
		return strings.TrimSpace(first.Text)
	}
	return ""
}

func ruleFor(f Field) Rule {
	for _, r := range Rules {
		if r.Field == f {
			return r
		}
	}
	return Rule{Field: f}
}
