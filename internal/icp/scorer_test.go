package icp

import (
	"reflect"
	"testing"

	"GTMEngine/internal/domain"
)

func ptr(s string) *string { return &s }

func TestScoreAllRulesFire(t *testing.T) {
	t.Parallel()

	lead := Lead{Role: ptr("VP Engineering"), Company: ptr("Acme")}
	got := Score(lead, &Signal{Excerpt: "Major OUTAGE last night"}, nil)

	if got.Score != 60 {
		t.Fatalf("score = %d, want 60", got.Score)
	}
	want := []string{
		`Role contains "engineering" (+30)`,
		`Company present: "Acme" (+20)`,
		`Signal contains urgency term "outage" (+10)`,
	}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Fatalf("reasons = %#v, want %#v", got.Reasons, want)
	}
}

func TestScoreFloor(t *testing.T) {
	t.Parallel()

	got := Score(Lead{Role: ptr("Sales Rep")}, &Signal{Excerpt: "hello"}, nil)
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
	if !reflect.DeepEqual(got.Reasons, []string{"No strong ICP match"}) {
		t.Fatalf("reasons = %#v", got.Reasons)
	}
}

func TestScoreEmptyCompanyAndMissingSignal(t *testing.T) {
	t.Parallel()

	got := Score(Lead{Role: ptr("Head of Platform"), Company: ptr("")}, nil, nil)
	if got.Score != 30 {
		t.Fatalf("score = %d, want 30", got.Score)
	}
	if got.Reasons[0] != `Role contains "platform" (+30)` {
		t.Fatalf("unexpected reason: %s", got.Reasons[0])
	}
}

func TestScoreConfigReplacesDefaults(t *testing.T) {
	t.Parallel()

	doc := "---\nkeywords: ninja\n---\nOur buyers are ninjas."

	ninja := Score(Lead{Role: ptr("Ninja")}, nil, &doc)
	if ninja.Score != 30 {
		t.Fatalf("ninja score = %d, want 30", ninja.Score)
	}

	platform := Score(Lead{Role: ptr("platform")}, nil, &doc)
	if platform.Score != 0 {
		t.Fatalf("platform score = %d, want 0 once defaults are replaced", platform.Score)
	}

	// urgency terms were not overridden, defaults still apply
	urgent := Score(Lead{}, &Signal{Excerpt: "security breach"}, &doc)
	if urgent.Score != 10 {
		t.Fatalf("urgency score = %d, want 10", urgent.Score)
	}
}

func TestScoreMalformedConfigFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	doc := "---\nkeywords: ninja\nno closing fence"
	got := Score(Lead{Role: ptr("Platform Engineer")}, nil, &doc)
	if got.Score != 30 {
		t.Fatalf("score = %d, want 30", got.Score)
	}
}

func TestScoreTopsOutAtSixty(t *testing.T) {
	t.Parallel()

	for _, role := range []string{"CTO", "Director of SRE", "Security Architect"} {
		got := Score(Lead{Role: ptr(role), Company: ptr("Acme")}, &Signal{Excerpt: "critical vulnerability"}, nil)
		if got.Score != 60 || len(got.Reasons) != 3 {
			t.Fatalf("score %d with %d reasons for %s, want 60 with 3", got.Score, len(got.Reasons), role)
		}
	}
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	cases := map[int]int{-10: 0, 0: 0, 60: 60, 100: 100, 130: 100}
	for in, want := range cases {
		if got := clampScore(in); got != want {
			t.Fatalf("clampScore(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFromDomain(t *testing.T) {
	t.Parallel()

	l := FromLead(domain.Lead{Name: "Ada", Role: ptr("CTO")})
	if l.Role == nil || *l.Role != "CTO" {
		t.Fatalf("unexpected role: %v", l.Role)
	}
	if FromSignal(nil) != nil {
		t.Fatal("expected nil signal")
	}
	if s := FromSignal(&domain.Signal{Excerpt: "x"}); s.Excerpt != "x" {
		t.Fatalf("unexpected excerpt: %q", s.Excerpt)
	}
}

func TestScoreBlankOverrideKeepsDefaults(t *testing.T) {
	t.Parallel()

	doc := "---\nkeywords: , ,\n---\n"
	if got := Score(Lead{Role: ptr("Sales Rep")}, nil, &doc); got.Score != 0 {
		t.Fatalf("blank override matched every role: score %d", got.Score)
	}
	if got := Score(Lead{Role: ptr("Platform Engineer")}, nil, &doc); got.Score != 30 {
		t.Fatalf("defaults should stay active: score %d", got.Score)
	}
}
