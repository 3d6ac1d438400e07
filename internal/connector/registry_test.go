package connector

import (
	"context"
	"reflect"
	"testing"

	"GTMEngine/internal/domain"
)

type stubConnector struct{ name string }

func (s stubConnector) Name() string { return s.name }

func (s stubConnector) Ingest(context.Context, string) (domain.ConnectorResult, error) {
	return domain.ConnectorResult{}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubConnector{name: "rss"}, stubConnector{name: "github"})

	c, err := reg.Resolve("rss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "rss" {
		t.Fatalf("resolved %s, want rss", c.Name())
	}

	if _, err := reg.Resolve("twitter"); err == nil || err.Error() != "connector twitter is not registered" {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := reg.Names(); !reflect.DeepEqual(got, []string{"github", "rss"}) {
		t.Fatalf("names = %v", got)
	}
}

func TestRegistryZeroValue(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubConnector{name: "rss"})
	if _, err := reg.Resolve("rss"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
