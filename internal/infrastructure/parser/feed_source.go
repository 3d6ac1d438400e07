package parser

import (
	"context"
	"fmt"
	"log/slog"

	"GTMEngine/internal/config"
	"GTMEngine/internal/connector"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

// ConfigFeedSource implements ports.FeedSource from config-defined feeds.
type ConfigFeedSource struct {
	registry *connector.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.FeedSource = (*ConfigFeedSource)(nil)

// NewConfigFeedSource wires the connector registry with config-defined feeds.
func NewConfigFeedSource(reg *connector.Registry, feeds []config.FeedConfig, log *slog.Logger) *ConfigFeedSource {
	return &ConfigFeedSource{
		registry: reg,
		feeds:    feeds,
		logger:   log,
	}
}

// Feeds returns every configured feed whose connector is registered.
func (s *ConfigFeedSource) Feeds(ctx context.Context) ([]domain.Feed, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("connector registry is not configured")
	}

	s.debug("list feeds", "configured", len(s.feeds))

	feeds := make([]domain.Feed, 0, len(s.feeds))
	for _, cfg := range s.feeds {
		feed := toFeed(cfg)
		if feed.Input == "" {
			return nil, fmt.Errorf("feed %s: input is empty", feed.Name)
		}
		if _, err := s.registry.Resolve(feed.Connector); err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}
		s.debug("feed ready", "feed", feed.Name, "connector", feed.Connector)
		feeds = append(feeds, feed)
	}

	return feeds, nil
}

func toFeed(cfg config.FeedConfig) domain.Feed {
	feed := domain.Feed{Name: cfg.Name, Connector: cfg.Connector, Input: cfg.Input}
	if feed.Connector == "" {
		feed.Connector = "rss"
	}
	if feed.Name == "" {
		feed.Name = feed.Input
	}
	return feed
}

func (s *ConfigFeedSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
