package clock

import (
	"sync"
	"time"
)

// Clock 时间来源，服务层通过注入获得当前时间
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem 基于 time.Now 的系统时钟（UTC）
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed 固定时钟，测试中可手动推进
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed 返回始终停在给定时刻的时钟
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance 将时钟向前推进 d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
