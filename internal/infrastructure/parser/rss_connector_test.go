package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GTMEngine/internal/domain"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Eng Blog</title>
    <item>
      <title>Postmortem: checkout outage</title>
      <link>https://blog.example.com/outage</link>
      <description><![CDATA[<p>We rolled back  the <b>deploy</b>.</p>]]></description>
      <pubDate>Mon, 04 Mar 2024 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>No link here</title>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Release notes</title>
  <entry>
    <title>Policy gates in CI</title>
    <link rel="self" href="https://example.com/self"/>
    <link rel="alternate" href="https://example.com/policy"/>
    <summary>Every merge now requires approval.</summary>
    <updated>2024-05-01T08:30:00Z</updated>
  </entry>
</feed>`

func newFeedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSConnectorIngestRSS(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, rssFixture)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewRSSConnector(srv.Client())
	c.now = func() time.Time { return now }

	res, err := c.Ingest(context.Background(), srv.URL+"/feed")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Meta.ItemCount != 2 || len(res.Signals) != 2 {
		t.Fatalf("unexpected item count: %+v", res.Meta)
	}
	if res.Meta.Source != srv.URL+"/feed" || !res.Meta.FetchedAt.Equal(now) {
		t.Fatalf("unexpected meta: %+v", res.Meta)
	}

	first := res.Signals[0]
	if first.Excerpt != "Postmortem: checkout outage - We rolled back the deploy." {
		t.Fatalf("unexpected excerpt: %q", first.Excerpt)
	}
	if first.Source != "https://blog.example.com/outage" {
		t.Fatalf("unexpected source: %s", first.Source)
	}
	if !first.CapturedAt.Equal(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected capturedAt: %s", first.CapturedAt)
	}
	if first.Status != domain.SignalPending {
		t.Fatalf("unexpected status: %s", first.Status)
	}

	second := res.Signals[1]
	if second.Excerpt != "No link here" || second.Source != srv.URL+"/feed" || !second.CapturedAt.Equal(now) {
		t.Fatalf("unexpected fallback signal: %+v", second)
	}
}

func TestRSSConnectorIngestAtom(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, atomFixture)
	res, err := NewRSSConnector(srv.Client()).Ingest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expected one signal, got %d", len(res.Signals))
	}
	sig := res.Signals[0]
	if sig.Source != "https://example.com/policy" {
		t.Fatalf("unexpected source: %s", sig.Source)
	}
	if sig.Excerpt != "Policy gates in CI - Every merge now requires approval." {
		t.Fatalf("unexpected excerpt: %q", sig.Excerpt)
	}
	if !sig.CapturedAt.Equal(time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected capturedAt: %s", sig.CapturedAt)
	}
}

func TestRSSConnectorTruncatesExcerpt(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 800)
	srv := newFeedServer(t, `<rss><channel><item><title>`+long+`</title></item></channel></rss>`)

	res, err := NewRSSConnector(srv.Client()).Ingest(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if got := len(res.Signals[0].Excerpt); got != domain.MaxExcerptLength {
		t.Fatalf("excerpt length = %d, want %d", got, domain.MaxExcerptLength)
	}
}

func TestRSSConnectorHTTPError(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, rssFixture)
	if _, err := NewRSSConnector(srv.Client()).Ingest(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatal("expected error for 404 feed")
	}
}
