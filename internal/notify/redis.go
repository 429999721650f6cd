package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher Redis 发布能力（pkg/redis.Client 满足该接口）
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisNotifier 将事件 JSON 发布到 Redis 频道
type RedisNotifier struct {
	pub     Publisher
	channel string
}

// NewRedisNotifier 创建 Redis 渠道
func NewRedisNotifier(pub Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{pub: pub, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	if err := n.pub.Publish(ctx, n.channel, payload); err != nil {
		return fmt.Errorf("发布 Redis 事件失败: %w", err)
	}
	return nil
}
