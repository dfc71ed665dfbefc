package parser

import (
	"strings"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

func (p *Parser) extractLinks(root markup.Node) []doctree.Link {
	var links []doctree.Link
	for _, a := range markup.FindAll(root, "a") {
		href, ok := a.Attr("href")
		if !ok {
			continue
		}
		title, _ := a.Attr("title")
		links = append(links, doctree.Link{
			Href:         href,
			Text:         a.Text(),
			Title:        title,
			IsInternal:   p.isInternal(href),
			IsAttachment: p.isAttachment(href),
		})
	}
	return links
}

func (p *Parser) extractImages(root markup.Node) []doctree.Image {
	var images []doctree.Image
	for _, img := range markup.FindAll(root, "img") {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		title, _ := img.Attr("title")
		images = append(images, doctree.Image{
			Src:          src,
			Alt:          alt,
			Title:        title,
			Width:        optionalAttr(img, "width"),
			Height:       optionalAttr(img, "height"),
			IsAttachment: p.isAttachment(src),
		})
	}
	return images
}

// isInternal accepts wiki paths and root-relative hrefs. Protocol-relative
// "//host" links are external.
func (p *Parser) isInternal(href string) bool {
	if strings.Contains(href, p.opts.InternalPathSegment) {
		return true
	}
	return strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}

func (p *Parser) isAttachment(ref string) bool {
	return strings.Contains(ref, p.opts.AttachmentPathSegment)
}

func optionalAttr(n markup.Node, key string) *string {
	v, ok := n.Attr(key)
	if !ok {
		return nil
	}
	return &v
}
