package parser

import (
	"path"
	"strings"

	"github.com/nao1215/siteparser/internal/urlnorm"
)

// Focused-crawl score adjustments. Lower scores pop earlier.
const (
	// depthWeight spaces depths apart. Adjustments combine to between -11
	// and +7, so they mostly reorder URLs within a depth band but can move
	// one ahead of a shallower URL (a depth-1 contact page with a contact
	// anchor scores -1, ahead of a plain depth-0 URL at 0).
	depthWeight = 10

	// contactSegmentBonus pulls contact-ish pages to the front.
	contactSegmentBonus = -8

	// anchorTokenBonus rewards links whose anchor text mentions contact
	// vocabulary.
	anchorTokenBonus = -3

	// contentSegmentPenalty pushes long-tail content sections back.
	contentSegmentPenalty = 5

	// binaryExtensionPenalty deprioritizes URLs that usually resolve to
	// non-HTML bodies. They are still fetched, just late.
	binaryExtensionPenalty = 2
)

// contactSegments are path segments that typically host contact details.
var contactSegments = map[string]bool{
	"contact":    true,
	"contacts":   true,
	"kontakty":   true,
	"contact-us": true,
	"about":      true,
	"support":    true,
	"help":       true,
}

// contentSegments are path segments for bulk content unlikely to carry
// contacts.
var contentSegments = map[string]bool{
	"docs":     true,
	"blog":     true,
	"news":     true,
	"archive":  true,
	"tag":      true,
	"category": true,
}

// deprioritizedExtensions are file extensions that usually yield non-HTML
// responses.
var deprioritizedExtensions = map[string]bool{
	"pdf": true, "zip": true, "tar": true, "gz": true,
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"mp4": true, "mp3": true,
}

// anchorTokens mark anchor text that advertises contact information.
var anchorTokens = []string{"contact", "email", "phone", "контакт", "связь"}

// priorityFor computes the frontier priority of a URL. In breadth-first
// mode the priority is the depth itself; in focused mode contact-ish URLs
// are pulled ahead of generic content within each depth band.
func priorityFor(u *urlnorm.URL, anchorText string, depth int, focused bool) int {
	if !focused {
		return depth
	}

	score := depth * depthWeight
	lowerPath := strings.ToLower(u.Path)

	hasContact, hasContent := false, false
	for _, segment := range strings.Split(lowerPath, "/") {
		if segment == "" {
			continue
		}
		if contactSegments[segment] {
			hasContact = true
		}
		if contentSegments[segment] {
			hasContent = true
		}
	}
	if hasContact {
		score += contactSegmentBonus
	}
	if hasContent {
		score += contentSegmentPenalty
	}

	if anchorMentionsContact(anchorText) {
		score += anchorTokenBonus
	}

	ext := strings.TrimPrefix(path.Ext(lowerPath), ".")
	if deprioritizedExtensions[ext] {
		score += binaryExtensionPenalty
	}

	return score
}

// anchorMentionsContact reports whether anchor text contains a contact
// vocabulary token.
func anchorMentionsContact(anchorText string) bool {
	if anchorText == "" {
		return false
	}
	lowered := strings.ToLower(anchorText)
	for _, token := range anchorTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
