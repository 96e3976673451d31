package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/siteparser/internal/model"
	"github.com/nao1215/siteparser/internal/urlnorm"
)

// Page is everything pulled out of one HTML document in a single pass.
type Page struct {
	// Text is the visible text with whitespace separators between
	// elements. Script, style, and noscript content is excluded.
	Text string

	// Links are candidate navigation targets in document order,
	// canonicalized, deduplicated by key, and truncated to the per-page
	// cap.
	Links []model.Link

	// MailtoTargets are raw mailto: hrefs for the email extractor.
	MailtoTargets []string

	// TelTargets are raw tel: hrefs for the phone extractor.
	TelTargets []string

	// Scripts holds inline script bodies for cloaked-email unwrapping.
	Scripts []string
}

// ParseHTML parses body and extracts text and candidate links relative to
// finalURL. Parsing is lenient; only a catastrophic tokenizer failure
// returns an error, and callers absorb it as a page with no extracts.
func ParseHTML(body string, finalURL *urlnorm.URL, includeQuery bool, maxLinks int) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var text strings.Builder
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script":
				if s := nodeText(n); s != "" {
					page.Scripts = append(page.Scripts, s)
				}
				return
			case "style", "noscript":
				return
			case "a", "area":
				if href := strings.TrimSpace(attrValue(n, "href")); href != "" {
					page.collectHref(href, anchorText(n), finalURL, includeQuery, seen)
				}
			}
		case html.TextNode:
			text.WriteString(n.Data)
			text.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if maxLinks > 0 && len(page.Links) > maxLinks {
		page.Links = page.Links[:maxLinks]
	}
	page.Text = text.String()
	return page, nil
}

// collectHref routes one href to the link list or a contact-target list.
func (p *Page) collectHref(href, anchor string, base *urlnorm.URL, includeQuery bool, seen map[string]bool) {
	lowered := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lowered, "mailto:"):
		p.MailtoTargets = append(p.MailtoTargets, href)
		return
	case strings.HasPrefix(lowered, "tel:"):
		p.TelTargets = append(p.TelTargets, href)
		return
	}

	u, err := urlnorm.Resolve(base, href, includeQuery)
	if err != nil {
		return
	}
	key := u.Key()
	if seen[key] {
		return
	}
	seen[key] = true
	p.Links = append(p.Links, model.Link{URL: u, AnchorText: anchor})
}

// anchorText returns the visible text of an anchor's subtree, trimmed.
func anchorText(n *html.Node) string {
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
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return strings.TrimSpace(b.String())
}

// nodeText concatenates the immediate text children of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// attrValue retrieves an attribute value from an HTML node.
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
