package notify

import (
	"go.uber.org/zap"

	"hems-scheduler/backend/config"
)

// Build 按配置组装投递渠道；日志渠道始终启用
// pub 为 nil（Redis 未启用）时跳过 Redis 渠道
func Build(cfg *config.Config, pub Publisher, logger *zap.Logger) (*Multi, error) {
	notifiers := []Notifier{NewLogNotifier(logger)}

	if cfg.Notify.RedisChannel != "" {
		if pub == nil {
			logger.Warn("Redis 未启用，跳过 Redis 事件渠道", zap.String("channel", cfg.Notify.RedisChannel))
		} else {
			notifiers = append(notifiers, NewRedisNotifier(pub, cfg.Notify.RedisChannel))
		}
	}

	if len(cfg.Notify.KafkaBrokers) > 0 {
		kn, err := NewKafkaNotifier(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, kn)
	}

	if cfg.Notify.Mail {
		mn, err := NewMailNotifier(&cfg.Mail)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, mn)
	}

	logger.Info("事件渠道初始化完成", zap.Int("channels", len(notifiers)))
	return NewMulti(notifiers...), nil
}
