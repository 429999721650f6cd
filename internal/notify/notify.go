package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// EventRegistrationConfirmed 讲者报名成功
const EventRegistrationConfirmed = "registration.confirmed"

// Event 报名成功后对外投递的结构化事件
type Event struct {
	Type           string    `json:"type"`
	RegistrationID string    `json:"registration_id"`
	SpeakerName    string    `json:"speaker_name"`
	SpeakerEmail   string    `json:"speaker_email"`
	SpeakerPhone   string    `json:"speaker_phone,omitempty"`
	Specialty      string    `json:"specialty,omitempty"`
	TopicTitle     string    `json:"topic_title"`
	QuarterID      string    `json:"quarter_id"`
	QuarterLabel   string    `json:"quarter_label"`
	MeetingDate    string    `json:"meeting_date"`
	SlotStart      string    `json:"slot_start"`
	SlotEnd        string    `json:"slot_end"`
	SlotName       string    `json:"slot_name"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Notifier 事件投递接口
// 报名流程不依赖投递结果，调用方只记录失败
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Multi 将事件依次投递给所有渠道，单个渠道失败不影响其他渠道
type Multi struct {
	notifiers []Notifier
	closers   []func() error
}

// NewMulti 组合多个渠道
func NewMulti(notifiers ...Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		m.notifiers = append(m.notifiers, n)
		if c, ok := n.(interface{ Close() error }); ok {
			m.closers = append(m.closers, c.Close)
		}
	}
	return m
}

// Len 已启用的渠道数量
func (m *Multi) Len() int {
	return len(m.notifiers)
}

func (m *Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 释放持有连接的渠道（如 Kafka Writer）
func (m *Multi) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ── 日志渠道 ──

// LogNotifier 将事件写入结构化日志，始终启用
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志渠道
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Info("讲者报名成功",
		zap.String("event", event.Type),
		zap.String("registration_id", event.RegistrationID),
		zap.String("speaker", event.SpeakerName),
		zap.String("email", event.SpeakerEmail),
		zap.String("quarter", event.QuarterLabel),
		zap.String("meeting_date", event.MeetingDate),
		zap.String("slot", event.SlotStart+"-"+event.SlotEnd),
		zap.String("topic", event.TopicTitle),
	)
	return nil
}
