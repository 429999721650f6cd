package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter kafka.Writer 的最小子集
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier 将事件写入 Kafka topic，按季度分区保证同季度事件有序
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

// NewKafkaNotifier 创建 Kafka 渠道
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka 渠道至少需要一个 broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka 渠道 topic 不能为空")
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
	}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	err = n.writer.WriteMessages(ctx, kafka.Message{
		Topic: n.topic,
		Key:   []byte(event.QuarterID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("写入 Kafka 失败: %w", err)
	}
	return nil
}

// Close 关闭底层 Writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
