package service

import (
	"context"
	"time"

	"table-orders/internal/common/logger"
	"table-orders/internal/microservices/tracker/feed"
)

type TrackerServiceInterface interface {
	Watch(ctx context.Context, obs Observer) error
}

// Service starts one SyncClient per observer over a shared feed.
type Service struct {
	orders     OrderSource
	feed       feed.Feed
	channel    string
	retryDelay time.Duration
	log        *logger.Logger
}

func NewService(orders OrderSource, f feed.Feed, channel string, retryDelay time.Duration, lg *logger.Logger) *Service {
	return &Service{orders: orders, feed: f, channel: channel, retryDelay: retryDelay, log: lg}
}

// Watch keeps obs in step with the store until ctx is done.
func (s *Service) Watch(ctx context.Context, obs Observer) error {
	c := s.NewClient(obs)
	defer c.Close()
	return c.Run(ctx)
}

func (s *Service) NewClient(obs Observer) *SyncClient {
	c := NewSyncClient(s.feed, s.channel, Pull(s.orders, obs), s.log)
	if s.retryDelay > 0 {
		c.RetryDelay = s.retryDelay
	}
	return c
}
