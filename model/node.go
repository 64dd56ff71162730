package model

import (
	"unsafe"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	jsoniter.RegisterTypeDecoderFunc("model.Child", decodeChild)
}

// Node is an element of a parsed HTML document.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Child           `json:"children,omitempty"`
}

// Attr returns the named attribute and whether it was present.
// It is safe to call on a nil node.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// Class returns the literal class attribute, or "" when absent.
func (n *Node) Class() string {
	v, _ := n.Attr("class")
	return v
}

// Child is one entry of a node's children: either an element or a text leaf.
type Child struct {
	Element *Node
	Text    string
	IsText  bool
}

// ElementChild wraps n as a child entry.
func ElementChild(n *Node) Child {
	return Child{Element: n}
}

// TextChild wraps s as a text leaf.
func TextChild(s string) Child {
	return Child{Text: s, IsText: true}
}

// El builds an element node. Children may be *Node, Node, string or Child.
func El(tag string, attrs map[string]string, children ...any) *Node {
	n := &Node{Tag: tag, Attrs: attrs}
	for _, c := range children {
		switch v := c.(type) {
		case *Node:
			n.Children = append(n.Children, ElementChild(v))
		case Node:
			n.Children = append(n.Children, ElementChild(&v))
		case string:
			n.Children = append(n.Children, TextChild(v))
		case Child:
			n.Children = append(n.Children, v)
		}
	}
	return n
}

// MarshalJSON writes text leaves as strings and elements as objects.
func (c Child) MarshalJSON() ([]byte, error) {
	if c.IsText || c.Element == nil {
		return codec.Marshal(c.Text)
	}
	return codec.Marshal(c.Element)
}

// UnmarshalJSON accepts a string (text leaf) or an object (element).
// Any other JSON kind decodes to an empty text leaf so that a malformed
// payload degrades like any other structural mismatch.
func (c *Child) UnmarshalJSON(data []byte) error {
	return codec.Unmarshal(data, c)
}

// decodeChild streams one child, and through ReadVal its whole subtree.
func decodeChild(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	c := (*Child)(ptr)
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		*c = TextChild(iter.ReadString())
	case jsoniter.ObjectValue:
		n := &Node{}
		iter.ReadVal(n)
		*c = ElementChild(n)
	default:
		iter.Skip()
		*c = TextChild("")
	}
}
