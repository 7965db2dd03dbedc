package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}

	return ""
}

// hasClass reports whether n carries class in its class attribute.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}

	return false
}

// findAll walks the tree depth-first and collects every element node the
// predicate accepts.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			found = append(found, n)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return found
}

// findFirst returns the first element node the predicate accepts, or nil.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if nodes := findAll(root, match); len(nodes) > 0 {
		return nodes[0]
	}

	return nil
}

// byTagClass matches element by tag name and class.
func byTagClass(tag, class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == tag && hasClass(n, class)
	}
}

// byTagAttr matches elements by tag name carrying a non-empty attribute.
func byTagAttr(tag, attrName string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == tag && attr(n, attrName) != ""
	}
}

// text collects and trims the concatenated text content below n.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}

	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.TrimSpace(b.String())
}

// scriptText returns the raw text of a script element.
func scriptText(n *html.Node) string {
	var b strings.Builder

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}

	return b.String()
}
