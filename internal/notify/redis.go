// Package notify publishes distribution events to Redis for the Gateway to
// forward (SSE / in-app bell). Delivery is fire-and-forget: failures are
// logged and never surfaced to the caller, so a dropped notification cannot
// roll back a committed core write.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/ports"
)

// Channels mirror the event names the Gateway subscribes to.
const (
	channelDescriptionReady = "EVENT_DESCRIPTION_READY"
	channelPriorityReady    = "EVENT_PRIORITY_READY"
	channelRedistributed    = "EVENT_VAGA_REDISTRIBUTED"
)

// RedisNotifier implements ports.Notifier on a Redis client.
type RedisNotifier struct {
	rdb *redis.Client
}

var _ ports.Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier returns a configured RedisNotifier.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

// DescriptionReady signals that an AI-improved description awaits review.
func (n *RedisNotifier) DescriptionReady(ctx context.Context, vagaID string) {
	n.publish(ctx, channelDescriptionReady, map[string]string{
		"type":   channelDescriptionReady,
		"vagaId": vagaID,
	})
}

// PriorityReady signals that a fresh priority score is available.
func (n *RedisNotifier) PriorityReady(ctx context.Context, score model.PriorityScore) {
	n.publish(ctx, channelPriorityReady, map[string]any{
		"type":    channelPriorityReady,
		"vagaId":  score.VagaID,
		"score":   score.Score,
		"tier":    string(score.Tier),
		"slaDays": score.SLADays,
	})
}

// Redistributed signals a vaga changing hands, so the new analyst can be
// notified.
func (n *RedisNotifier) Redistributed(ctx context.Context, rec model.RedistributionRecord) {
	n.publish(ctx, channelRedistributed, map[string]any{
		"type":         channelRedistributed,
		"vagaId":       rec.VagaID,
		"newAnalystId": rec.NewAnalystID,
		"reason":       rec.Reason,
	})
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, payload any) {
	event, _ := json.Marshal(payload)
	if err := n.rdb.Publish(ctx, channel, event).Err(); err != nil {
		slog.Warn("publish failed", "channel", channel, "err", err)
	}
}
