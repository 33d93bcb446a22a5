// Package heuristic provides deterministic, rule-based capabilities: an
// intent agent, a schema proposer and a schema critic that work from
// filenames, column names and plain-text cues instead of a model call.
// They are the default capabilities for offline use and a realistic
// stand-in wherever a remote model is not wired up.
package heuristic

import (
	"regexp"
	"strings"
)

var approvalPhrases = []string{
	"approve", "approved", "looks good", "lgtm", "perfect", "yes", "go ahead", "ship it",
}

// isApproval reports whether a reviewer message reads as acceptance of the
// standing proposal.
func isApproval(content string) bool {
	text := strings.ToLower(strings.TrimSpace(content))
	for _, phrase := range approvalPhrases {
		if text == phrase || strings.HasPrefix(text, phrase+" ") ||
			strings.HasPrefix(text, phrase+",") || strings.HasPrefix(text, phrase+".") {
			return true
		}
	}
	return false
}

var irregularSingulars = map[string]string{
	"people":   "person",
	"children": "child",
	"men":      "man",
	"women":    "woman",
}

// singularize applies the handful of English rules the filename heuristics
// need. It is not a general inflector and does not try to be.
func singularize(word string) string {
	w := strings.ToLower(word)
	if s, ok := irregularSingulars[w]; ok {
		return s
	}
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 3:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ses") || strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 1:
		return w[:len(w)-1]
	}
	return w
}

var nonIdent = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// fileBase strips the extension and normalizes separators to underscores.
func fileBase(filename string) string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(base), "_"), "_")
}

// entityLabel derives an entity type label from a filename:
// "people.csv" -> PERSON, "order-items.csv" -> ORDER_ITEM.
func entityLabel(filename string) string {
	parts := strings.Split(fileBase(filename), "_")
	if len(parts) == 0 {
		return ""
	}
	parts[len(parts)-1] = singularize(parts[len(parts)-1])
	return strings.ToUpper(strings.Join(parts, "_"))
}

// isUpperSnake reports whether a label follows the ALL_CAPS_WITH_UNDERSCORES
// convention.
func isUpperSnake(label string) bool {
	if label == "" {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

var csvMention = regexp.MustCompile(`[\w./-]+\.csv`)

// mentionedFiles extracts .csv filenames from free text, in order of first
// appearance, deduplicated.
func mentionedFiles(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range csvMention.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
