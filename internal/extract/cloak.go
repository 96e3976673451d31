package extract

import (
	"html"
	"regexp"
	"strings"
)

// Text-level cloak replacements. The list is fixed: these are the
// obfuscations the extractor recognizes, applied before pattern matching.
var cloakReplacer = strings.NewReplacer(
	" [at] ", "@",
	"(at)", "@",
	"@AT@", "@",
	" [dot] ", ".",
	"(dot)", ".",
)

// DecloakText rewrites common textual email obfuscations ("info [at]
// example [dot] com") into plain addresses so the email pattern can match
// them.
func DecloakText(text string) string {
	return cloakReplacer.Replace(text)
}

// addyAssignment matches the variable assignments used by the Joomla
// address cloak: var addy12345 = 'info' + '@'; var addy_text12345 = ...
var addyAssignment = regexp.MustCompile(`(?i)^(?:var\s+)?(addy_text[a-z0-9]+|addy[a-z0-9]+)\s*=\s*(.+)`)

// jsToken matches single-quoted strings, double-quoted strings, and bare
// identifiers inside a concatenation expression.
var jsToken = regexp.MustCompile(`'([^'\\]*(?:\\.[^'\\]*)*)'|"([^"\\]*(?:\\.[^"\\]*)*)"|([A-Za-z_][A-Za-z0-9_]*)`)

// CloakedEmails unwraps addresses hidden by the Joomla email cloak: inline
// scripts that assemble an address by concatenating string fragments into
// "addy"-prefixed variables. Returns raw candidate addresses; callers
// validate them like any other candidate.
func CloakedEmails(scripts []string) []string {
	var out []string
	for _, script := range scripts {
		if !strings.Contains(script, "cloak") && !strings.Contains(script, "addy") {
			continue
		}
		variables := make(map[string]string)
		for _, statement := range splitJSStatements(script) {
			statement = strings.TrimSpace(statement)
			if statement == "" {
				continue
			}
			m := addyAssignment.FindStringSubmatch(statement)
			if m == nil {
				continue
			}
			value := evalJSConcat(m[2], variables)
			if value == "" {
				continue
			}
			variables[m[1]] = value
			if strings.Contains(value, "@") {
				out = append(out, value)
			}
		}
	}
	return out
}

// evalJSConcat evaluates a concatenation of string literals and known
// variables, resolving HTML entities in the fragments.
func evalJSConcat(expr string, variables map[string]string) string {
	var b strings.Builder
	for _, m := range jsToken.FindAllStringSubmatch(expr, -1) {
		switch {
		case m[1] != "" || strings.Contains(m[0], "''"):
			b.WriteString(html.UnescapeString(unescapeJS(m[1])))
		case m[2] != "" || strings.Contains(m[0], `""`):
			b.WriteString(html.UnescapeString(unescapeJS(m[2])))
		case m[3] != "":
			b.WriteString(variables[m[3]])
		}
	}
	return b.String()
}

// unescapeJS resolves the escapes that matter inside cloak fragments.
func unescapeJS(s string) string {
	s = strings.ReplaceAll(s, `\'`, "'")
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

// splitJSStatements splits script text on ";" while ignoring semicolons
// inside string literals.
func splitJSStatements(text string) []string {
	var parts []string
	var buf strings.Builder
	inString := false
	escape := false
	var quote byte

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			buf.WriteByte(ch)
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == quote:
				inString = false
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inString = true
			quote = ch
			buf.WriteByte(ch)
		case ';':
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteByte(ch)
		}
	}
	if buf.Len() > 0 {
		parts = append(parts, buf.String())
	}
	return parts
}
