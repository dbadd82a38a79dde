package service

import (
	"jsonweblog/internal/broadcast"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// FeedService hands out live-feed subscriptions to connected clients and
// counts them.
type FeedService interface {
	Connect(remoteAddr string) *broadcast.Subscription
	Disconnect(sub *broadcast.Subscription)
	ActiveConnections() int
}

type feedService struct {
	broadcaster broadcast.Broadcaster
	active      atomic.Int64
}

func NewFeedService(broadcaster broadcast.Broadcaster) FeedService {
	return &feedService{
		broadcaster: broadcaster,
	}
}

func (s *feedService) Connect(remoteAddr string) *broadcast.Subscription {
	sub := s.broadcaster.Subscribe(broadcast.WithName("ws:" + remoteAddr))
	n := s.active.Add(1)
	log.Info().Str("subscriber_id", sub.ID()).Str("remote", remoteAddr).Int64("connections", n).Msg("WebSocket connection established")
	return sub
}

func (s *feedService) Disconnect(sub *broadcast.Subscription) {
	sub.Close()
	n := s.active.Add(-1)
	log.Info().Str("subscriber_id", sub.ID()).Uint64("dropped", sub.Dropped()).Int64("connections", n).Msg("WebSocket connection closed")
}

func (s *feedService) ActiveConnections() int {
	return int(s.active.Load())
}
