// Package markdown reads the lightweight frontmatter used by context documents.
package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"GTMEngine/internal/domain"
)

const fence = "---"

var (
	intExpr   = regexp.MustCompile(`^-?\d+$`)
	floatExpr = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Document is a markdown file split into its frontmatter and body.
// Frontmatter is nil when the document has no usable `---` block.
type Document struct {
	Frontmatter map[string]any
	Content     string
}

// Parse splits markdown into frontmatter and content. It never fails: any irregularity
// yields a nil Frontmatter and the whole trimmed input as Content.
func Parse(markdown string) Document {
	trimmed := strings.TrimSpace(markdown)
	if !strings.HasPrefix(trimmed, fence) {
		return Document{Content: trimmed}
	}

	end := strings.Index(trimmed[len(fence):], fence)
	if end == -1 {
		return Document{Content: trimmed}
	}
	end += len(fence)

	block := strings.TrimSpace(trimmed[len(fence):end])
	content := strings.TrimSpace(trimmed[end+len(fence):])

	return Document{Frontmatter: parseSimpleYAML(block), Content: content}
}

// parseSimpleYAML reads flat `key: value` lines. Nested YAML is intentionally not understood.
func parseSimpleYAML(block string) map[string]any {
	result := map[string]any{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		colon := strings.Index(line, ":")
		if colon == -1 {
			continue
		}

		key := strings.TrimSpace(line[:colon])
		result[key] = coerce(strings.TrimSpace(line[colon+1:]))
	}
	return result
}

func coerce(raw string) any {
	switch {
	case raw == "true":
		return true
	case raw == "false":
		return false
	case intExpr.MatchString(raw):
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case floatExpr.MatchString(raw):
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case isQuoted(raw, '"') || isQuoted(raw, '\''):
		return raw[1 : len(raw)-1]
	}
	return raw
}

func isQuoted(raw string, quote byte) bool {
	return len(raw) >= 2 && raw[0] == quote && raw[len(raw)-1] == quote
}

// ExtractIcpConfig pulls comma separated `keywords` and `urgencyTerms` from the frontmatter.
// It returns nil when neither key carries a string value.
func ExtractIcpConfig(markdown string) *domain.IcpConfig {
	doc := Parse(markdown)
	if doc.Frontmatter == nil {
		return nil
	}

	var (
		cfg   domain.IcpConfig
		found bool
	)
	if raw, ok := doc.Frontmatter["keywords"].(string); ok {
		cfg.Keywords = splitList(raw)
		found = true
	}
	if raw, ok := doc.Frontmatter["urgencyTerms"].(string); ok {
		cfg.UrgencyTerms = splitList(raw)
		found = true
	}

	if !found {
		return nil
	}
	return &cfg
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		// an empty entry would be a substring of every role
		if entry := strings.ToLower(strings.TrimSpace(p)); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
