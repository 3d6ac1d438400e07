package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

var feedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// RSSConnector turns RSS 2.0 and Atom feed entries into pending signals.
type RSSConnector struct {
	client *http.Client
	now    func() time.Time
}

var _ ports.Connector = (*RSSConnector)(nil)

// NewRSSConnector wires an HTTP client; nil gets a 20s timeout client.
func NewRSSConnector(client *http.Client) *RSSConnector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSConnector{client: client, now: time.Now}
}

// Name identifies the connector inside the registry.
func (c *RSSConnector) Name() string {
	return "rss"
}

// Ingest fetches the feed at url and maps every entry to a signal.
func (c *RSSConnector) Ingest(ctx context.Context, url string) (domain.ConnectorResult, error) {
	doc, err := c.fetchFeed(ctx, url)
	if err != nil {
		return domain.ConnectorResult{}, err
	}

	now := c.now().UTC()
	entries := feedEntries(doc)
	signals := make([]domain.Signal, 0, len(entries))
	for _, entry := range entries {
		signals = append(signals, entryToSignal(entry, url, now))
	}

	return domain.ConnectorResult{
		Signals: signals,
		Meta: domain.ConnectorMeta{
			Source:    url,
			FetchedAt: now,
			ItemCount: len(signals),
		},
	}, nil
}

func (c *RSSConnector) fetchFeed(ctx context.Context, url string) (*xmlquery.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "GTMEngine/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", url, resp.Status)
	}

	doc, err := xmlquery.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return doc, nil
}

type feedEntry struct {
	title   string
	link    string
	content string
	date    string
}

// feedEntries reads RSS items first and falls back to Atom entries.
func feedEntries(doc *xmlquery.Node) []feedEntry {
	var entries []feedEntry

	for _, item := range xmlquery.Find(doc, "//channel/item") {
		entries = append(entries, feedEntry{
			title:   childText(item, "title"),
			link:    childText(item, "link"),
			content: firstNonEmpty(childText(item, "encoded"), childText(item, "description")),
			date:    firstNonEmpty(childText(item, "pubDate"), childText(item, "date")),
		})
	}
	if len(entries) > 0 {
		return entries
	}

	for _, entry := range xmlquery.Find(doc, "//*[local-name()='feed']/*[local-name()='entry']") {
		entries = append(entries, feedEntry{
			title:   childText(entry, "title"),
			link:    atomLink(entry),
			content: firstNonEmpty(childText(entry, "content"), childText(entry, "summary")),
			date:    firstNonEmpty(childText(entry, "published"), childText(entry, "updated")),
		})
	}
	return entries
}

func entryToSignal(entry feedEntry, feedURL string, now time.Time) domain.Signal {
	var parts []string
	if entry.title != "" {
		parts = append(parts, entry.title)
	}
	if snippet := contentSnippet(entry.content); snippet != "" {
		parts = append(parts, snippet)
	}

	source := entry.link
	if source == "" {
		source = feedURL
	}

	capturedAt := now
	if parsed, ok := parseFeedDate(entry.date); ok {
		capturedAt = parsed.UTC()
	}

	return domain.Signal{
		Source:     source,
		Excerpt:    domain.TruncateExcerpt(strings.Join(parts, " - ")),
		Status:     domain.SignalPending,
		CapturedAt: capturedAt,
	}
}

// contentSnippet strips markup and collapses whitespace.
func contentSnippet(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func childText(node *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(node, fmt.Sprintf("*[local-name()='%s']", name))
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}

func atomLink(entry *xmlquery.Node) string {
	var fallback string
	for _, link := range xmlquery.Find(entry, "*[local-name()='link']") {
		href := strings.TrimSpace(link.SelectAttr("href"))
		if href == "" {
			continue
		}
		rel := link.SelectAttr("rel")
		if rel == "" || rel == "alternate" {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	return fallback
}

func parseFeedDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
