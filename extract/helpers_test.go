package extract

import (
	"github.com/robertmeta/tvfixtures/model"
)

func cls(class string) map[string]string {
	return map[string]string{"class": class}
}

// fixture builds a fixture block shaped like the live page.
func fixture(hora, competition, flag, home, away, tv, calendar string) *model.Node {
	return model.El("div", cls("div_partido"),
		model.El("div", cls("div_hora"), hora),
		model.El("div", cls("div_campeonato"),
			model.El("img", map[string]string{"src": flag}),
			model.El("span", nil, competition),
		),
		model.El("div", cls("div_equipo1"), model.El("span", nil, home)),
		model.El("div", cls("div_equipo2"), model.El("span", nil, away)),
		model.El("div", cls("div_cadena nomovil2"),
			model.El("span", nil, tv, model.El("a", map[string]string{"href": calendar}, "cal")),
		),
	)
}

func header(date string) *model.Node {
	return model.El("a", map[string]string{"href": "?fecha=" + date}, date)
}

func children(nodes ...*model.Node) []model.Child {
	out := make([]model.Child, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, model.ElementChild(n))
	}
	return out
}
