package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	feedTTL      = 24 * time.Hour
	writeTimeout = time.Second
)

// RedisSink stores each recipient's feed as a capped list and publishes every
// notification on Channel for live subscribers.
type RedisSink struct {
	client  *redis.Client
	prefix  string
	Channel string
	log     *zap.Logger
}

func NewRedisSink(client *redis.Client, prefix string, log *zap.Logger) *RedisSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSink{
		client:  client,
		prefix:  prefix,
		Channel: prefix + ":events",
		log:     log,
	}
}

type event struct {
	Recipient string `json:"recipient"`
	Notification
}

func (s *RedisSink) Notify(ctx context.Context, n Notification) {
	who := RecipientFrom(ctx)

	raw, err := json.Marshal(n)
	if err != nil {
		s.log.Error("encode notification", zap.Error(err))
		return
	}
	ev, err := json.Marshal(event{Recipient: who, Notification: n})
	if err != nil {
		s.log.Error("encode notification event", zap.Error(err))
		return
	}

	// Delivery outlives the request context.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	key := s.feedKey(who)
	_, err = s.client.TxPipelined(wctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(wctx, key, raw)
		pipe.LTrim(wctx, key, 0, FeedCap-1)
		pipe.Expire(wctx, key, feedTTL)
		pipe.Publish(wctx, s.Channel, ev)
		return nil
	})
	if err != nil {
		s.log.Warn("deliver notification", zap.String("recipient", who), zap.Error(err))
	}
}

func (s *RedisSink) Recent(ctx context.Context, recipient string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > FeedCap {
		limit = FeedCap
	}

	raws, err := s.client.LRange(ctx, s.feedKey(recipient), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(raws))
	for _, raw := range raws {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			s.log.Warn("skip malformed notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *RedisSink) feedKey(recipient string) string {
	return s.prefix + ":feed:" + recipient
}
