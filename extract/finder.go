// Package extract rebuilds typed matchdays from the parsed schedule page.
//
// The page carries no schema: fixtures are located by literal class markers
// and each field sits at a fixed child offset below its marker. The markers
// and offsets live in the rule table in schema.go; everything else here is
// traversal that degrades to zero values instead of failing.
package extract

import (
	"strings"

	"github.com/robertmeta/tvfixtures/model"
)

// FindByClass returns every node under root, root included, whose class
// attribute equals class exactly. Nodes are returned in document order.
func FindByClass(root *model.Node, class string) []*model.Node {
	return find(root, func(c string) bool { return c == class })
}

// FindByClassPrefix is FindByClass with a prefix match on the class attribute.
func FindByClassPrefix(root *model.Node, prefix string) []*model.Node {
	return find(root, func(c string) bool { return strings.HasPrefix(c, prefix) })
}

func find(root *model.Node, match func(class string) bool) []*model.Node {
	var results []*model.Node
	walk(root, func(n *model.Node) {
		if class, ok := n.Attr("class"); ok && match(class) {
			results = append(results, n)
		}
	})
	return results
}

// walk visits n and its element descendants in pre-order, left to right.
func walk(n *model.Node, visit func(*model.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		if c.IsText {
			continue
		}
		walk(c.Element, visit)
	}
}
