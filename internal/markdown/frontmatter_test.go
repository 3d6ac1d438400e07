package markdown

import (
	"reflect"
	"testing"
)

func TestParseWithoutFrontmatter(t *testing.T) {
	t.Parallel()

	doc := Parse("  # Title\n\nbody text  ")
	if doc.Frontmatter != nil {
		t.Fatalf("expected nil frontmatter, got %v", doc.Frontmatter)
	}
	if doc.Content != "# Title\n\nbody text" {
		t.Fatalf("unexpected content: %q", doc.Content)
	}
}

func TestParseUnterminatedFence(t *testing.T) {
	t.Parallel()

	input := "---\nkeywords: a,b\nno closing fence"
	doc := Parse(input)
	if doc.Frontmatter != nil {
		t.Fatalf("expected nil frontmatter, got %v", doc.Frontmatter)
	}
	if doc.Content != input {
		t.Fatalf("expected whole input as content, got %q", doc.Content)
	}
}

func TestParseScalarCoercion(t *testing.T) {
	t.Parallel()

	input := `---
# comment line
enabled: true
disabled: false
count: 42
negative: -7
ratio: 0.75
quoted: "hello: world"
single: 'x'
plain: just text
url: https://example.com
not a pair
---

Body here.`

	doc := Parse(input)
	want := map[string]any{
		"enabled":  true,
		"disabled": false,
		"count":    42,
		"negative": -7,
		"ratio":    0.75,
		"quoted":   "hello: world",
		"single":   "x",
		"plain":    "just text",
		"url":      "https://example.com",
	}
	if !reflect.DeepEqual(doc.Frontmatter, want) {
		t.Fatalf("frontmatter = %#v\nwant %#v", doc.Frontmatter, want)
	}
	if doc.Content != "Body here." {
		t.Fatalf("unexpected content: %q", doc.Content)
	}
}

func TestExtractIcpConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantNil      bool
		wantKeywords []string
		wantUrgency  []string
	}{
		{
			name:    "no frontmatter",
			input:   "Just prose about our ICP.",
			wantNil: true,
		},
		{
			name:    "frontmatter without icp keys",
			input:   "---\ntitle: ICP\n---\nbody",
			wantNil: true,
		},
		{
			name:         "keywords only",
			input:        "---\nkeywords: Ninja, Platform Lead ,SRE\n---\n",
			wantKeywords: []string{"ninja", "platform lead", "sre"},
		},
		{
			name:         "both lists",
			input:        "---\nkeywords: cto\nurgencyTerms: Deadline, audit\n---\n",
			wantKeywords: []string{"cto"},
			wantUrgency:  []string{"deadline", "audit"},
		},
		{
			name:         "blank entries are dropped",
			input:        "---\nkeywords: cto,, platform ,\n---\n",
			wantKeywords: []string{"cto", "platform"},
		},
		{
			name:         "only blank entries",
			input:        "---\nkeywords: , ,\n---\n",
			wantKeywords: []string{},
		},
		{
			name:    "numeric keywords are not strings",
			input:   "---\nkeywords: 12\n---\n",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractIcpConfig(tt.input)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil config, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected config, got nil")
			}
			if !reflect.DeepEqual(got.Keywords, tt.wantKeywords) {
				t.Errorf("Keywords = %#v, want %#v", got.Keywords, tt.wantKeywords)
			}
			if !reflect.DeepEqual(got.UrgencyTerms, tt.wantUrgency) {
				t.Errorf("UrgencyTerms = %#v, want %#v", got.UrgencyTerms, tt.wantUrgency)
			}
		})
	}
}
