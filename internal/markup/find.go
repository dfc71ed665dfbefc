package markup

import "strings"

// Walk visits the descendants of n in document order. Returning false from
// fn skips that node's subtree.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	for _, c := range n.Children() {
		if fn(c) {
			Walk(c, fn)
		}
	}
}

// FindAll returns all descendants of n whose tag is one of tags, in
// document order. n itself is never included.
func FindAll(n Node, tags ...string) []Node {
	var out []Node
	Walk(n, func(c Node) bool {
		if hasTag(c, tags) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindFirst returns the first descendant of n matching one of tags.
func FindFirst(n Node, tags ...string) Node {
	var found Node
	Walk(n, func(c Node) bool {
		if found != nil {
			return false
		}
		if hasTag(c, tags) {
			found = c
			return false
		}
		return true
	})
	return found
}

// Body returns the <body> element of a parsed document, or root when the
// tree has none.
func Body(root Node) Node {
	if b := FindFirst(root, "body"); b != nil {
		return b
	}
	return root
}

// HasAncestor reports whether any ancestor of n has one of tags.
func HasAncestor(n Node, tags ...string) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if hasTag(p, tags) {
			return true
		}
	}
	return false
}

// Classes splits the class attribute into tokens.
func Classes(n Node) []string {
	v, ok := n.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// HeadingLevel returns 1..6 for h1..h6 and 0 for anything else.
func HeadingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// HeadingTags lists h1..h6.
var HeadingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func hasTag(n Node, tags []string) bool {
	t := n.Tag()
	for _, want := range tags {
		if t == want {
			return true
		}
	}
	return false
}
