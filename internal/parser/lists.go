package parser

import (
	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

func (p *Parser) extractLists(root markup.Node) doctree.Lists {
	return doctree.Lists{
		Ordered:   p.topLevelLists(root, "ol"),
		Unordered: p.topLevelLists(root, "ul"),
	}
}

// topLevelLists returns the lists of one kind that are not inside a list
// item; nested ones are reached through their item instead.
func (p *Parser) topLevelLists(root markup.Node, tag string) []doctree.ListGroup {
	var groups []doctree.ListGroup
	for _, l := range markup.FindAll(root, tag) {
		if markup.HasAncestor(l, "li") {
			continue
		}
		groups = append(groups, p.listGroup(l, 1))
	}
	return groups
}

func (p *Parser) listGroup(list markup.Node, depth int) doctree.ListGroup {
	group := doctree.ListGroup{}
	for _, li := range list.Children() {
		if li.Tag() != "li" {
			continue
		}
		item := doctree.ListItem{
			Text: li.Text(),
			HTML: li.InnerHTML(),
		}
		if depth < p.opts.MaxListDepth {
			nested := p.nestedLists(li, depth+1)
			if !nested.Empty() {
				item.NestedLists = &nested
			}
		}
		group = append(group, item)
	}
	return group
}

// nestedLists finds the outermost lists inside an item.
func (p *Parser) nestedLists(li markup.Node, depth int) doctree.Lists {
	out := doctree.Lists{
		Ordered:   []doctree.ListGroup{},
		Unordered: []doctree.ListGroup{},
	}
	markup.Walk(li, func(n markup.Node) bool {
		switch n.Tag() {
		case "ol":
			out.Ordered = append(out.Ordered, p.listGroup(n, depth))
			return false
		case "ul":
			out.Unordered = append(out.Unordered, p.listGroup(n, depth))
			return false
		}
		return true
	})
	return out
}
