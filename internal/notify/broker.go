// Package notify is the live half of the notification fan-out: writes to
// the announcement table and community feeds are published to Redis
// channels, and the websocket stream endpoints forward them to connected
// clients. Losing an event here loses nothing durable — the store row
// already exists and the one-shot fetch endpoints remain the source of
// truth, which is why every publish failure is a log line and not an error.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelAnnouncements carries every announcement event. Subscribers
// filter broadcast vs personal on their side, the same partition rule the
// fetch endpoints apply.
const ChannelAnnouncements = "hivedesk:announcements"

// FeedChannel returns the pub/sub channel for one community's feed.
func FeedChannel(communityID uuid.UUID) string {
	return "hivedesk:feed:" + communityID.String()
}

type Broker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewBroker(ctx context.Context, redisURL string, logger *zap.Logger) (*Broker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis connection established", zap.String("addr", opt.Addr))
	return &Broker{rdb: rdb, logger: logger}, nil
}

func (b *Broker) Close() error {
	return b.rdb.Close()
}

// PublishAnnouncement pushes an announcement event to live subscribers.
// Best effort: the row is already committed, so a failed publish only
// delays delivery until the next fetch.
func (b *Broker) PublishAnnouncement(ctx context.Context, ann *models.Announcement) {
	b.publish(ctx, ChannelAnnouncements, ann)
}

// PublishFeedMessage pushes a feed event to the community's channel.
func (b *Broker) PublishFeedMessage(ctx context.Context, msg *models.FeedMessage) {
	b.publish(ctx, FeedChannel(msg.CommunityID), msg)
}

func (b *Broker) publish(ctx context.Context, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("marshal notify payload", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Warn("publish notify event",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}

// Subscribe opens a pub/sub subscription on channel. The first Receive
// confirms the subscription so a dead broker fails here, where the caller
// can still fall back to one-shot fetching, not later mid-stream.
func (b *Broker) Subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	sub := b.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return sub, nil
}
