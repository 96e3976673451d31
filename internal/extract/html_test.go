package extract

import (
	"strings"
	"testing"

	"github.com/nao1215/siteparser/internal/urlnorm"
)

func mustParseURL(t *testing.T, raw string) *urlnorm.URL {
	t.Helper()
	u, err := urlnorm.Parse(raw, false)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

// TestParseHTML tests text and link extraction from HTML documents.
func TestParseHTML(t *testing.T) {
	t.Parallel()

	t.Run("extracts visible text with separators", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body><h1>Title</h1><p>First</p><p>Second</p></body></html>`
		page, err := ParseHTML(doc, mustParseURL(t, "http://a.test/"), false, 100)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		for _, want := range []string{"Title", "First", "Second"} {
			if !strings.Contains(page.Text, want) {
				t.Errorf("text missing %q: %q", want, page.Text)
			}
		}
		if strings.Contains(page.Text, "TitleFirst") {
			t.Error("expected whitespace between element texts")
		}
	})

	t.Run("excludes script style and noscript content", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<p>visible</p>
			<script>var hidden1 = "scriptcontent";</script>
			<style>.hidden2 { color: red }</style>
			<noscript>hidden3</noscript>
		</body></html>`
		page, err := ParseHTML(doc, mustParseURL(t, "http://a.test/"), false, 100)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		for _, banned := range []string{"scriptcontent", "hidden2", "hidden3"} {
			if strings.Contains(page.Text, banned) {
				t.Errorf("text should not contain %q: %q", banned, page.Text)
			}
		}
		// Script bodies are retained separately for cloak unwrapping.
		if len(page.Scripts) != 1 || !strings.Contains(page.Scripts[0], "scriptcontent") {
			t.Errorf("expected script body retained, got %v", page.Scripts)
		}
	})

	t.Run("collects links with anchor text in document order", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="/contact">Contact us</a>
			<a href="/about">About</a>
			<area href="/map">
		</body></html>`
		page, err := ParseHTML(doc, mustParseURL(t, "http://a.test/"), false, 100)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(page.Links) != 3 {
			t.Fatalf("expected 3 links, got %d", len(page.Links))
		}
		if page.Links[0].URL.Key() != "http://a.test/contact" {
			t.Errorf("unexpected first link: %s", page.Links[0].URL.Key())
		}
		if page.Links[0].AnchorText != "Contact us" {
			t.Errorf("unexpected anchor text: %q", page.Links[0].AnchorText)
		}
		if page.Links[2].URL.Key() != "http://a.test/map" {
			t.Errorf("unexpected area link: %s", page.Links[2].URL.Key())
		}
	})

	t.Run("deduplicates by canonical key and truncates", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="/a">one</a>
			<a href="/a#section">dup via fragment</a>
			<a href="/b">two</a>
			<a href="/c">three</a>
		</body></html>`
		page, err := ParseHTML(doc, mustParseURL(t, "http://a.test/"), false, 2)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(page.Links) != 2 {
			t.Fatalf("expected 2 links after dedup+cap, got %d", len(page.Links))
		}
		if page.Links[0].URL.Key() != "http://a.test/a" || page.Links[1].URL.Key() != "http://a.test/b" {
			t.Errorf("unexpected links: %v, %v", page.Links[0].URL.Key(), page.Links[1].URL.Key())
		}
	})

	t.Run("routes mailto and tel hrefs to contact targets", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body>
			<a href="mailto:info@a.test?subject=hi">mail</a>
			<a href="tel:+74951234567">call</a>
			<a href="MAILTO:UPPER@a.test">upper</a>
		</body></html>`
		page, err := ParseHTML(doc, mustParseURL(t, "http://a.test/"), false, 100)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(page.Links) != 0 {
			t.Errorf("mailto/tel must not become frontier links, got %v", page.Links)
		}
		if len(page.MailtoTargets) != 2 {
			t.Errorf("expected 2 mailto targets, got %v", page.MailtoTargets)
		}
		if len(page.TelTargets) != 1 || page.TelTargets[0] != "tel:+74951234567" {
			t.Errorf("expected tel target, got %v", page.TelTargets)
		}
	})

	t.Run("survives broken markup", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body><p>unclosed <a href="/x">link<div></span></html`
		page, err := ParseHTML(doc, mustParseURL(t, "http://a.test/"), false, 100)
		if err != nil {
			t.Fatalf("lenient parse should not fail: %v", err)
		}
		if len(page.Links) != 1 {
			t.Errorf("expected 1 link from broken markup, got %d", len(page.Links))
		}
	})
}
