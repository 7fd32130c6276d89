// Package ledger 记录每个文件的处理结果。
//
// 整理器只依赖 Sink 接口；写入失败由调用方记录日志，不会中止运行。
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
)

// Event 单个文件的处理事件
type Event struct {
	RunID           string           `json:"run_id"`
	Timestamp       time.Time        `json:"timestamp"`
	SourcePath      string           `json:"source_path"`
	DestinationPath string           `json:"destination_path,omitempty"`
	Category        string           `json:"category,omitempty"`
	Outcome         internal.Outcome `json:"outcome"`
	Size            int64            `json:"size"`
	Detail          string           `json:"detail,omitempty"`
}

// Sink 事件接收方
type Sink interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

// NopSink 丢弃所有事件
type NopSink struct{}

func (NopSink) Record(context.Context, Event) error { return nil }
func (NopSink) Close() error                        { return nil }

// MultiSink 把事件依次写入多个 Sink，单个失败不影响其余
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ChanSink 把事件转发到通道，供界面实时展示
// 通道已满时阻塞，直到有空位或 ctx 结束
type ChanSink struct {
	ch     chan Event
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{ch: make(chan Event, buffer)}
}

// Events 返回事件通道，Close 后通道被关闭
func (c *ChanSink) Events() <-chan Event {
	return c.ch
}

func (c *ChanSink) Record(ctx context.Context, ev Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("ledger: chan sink closed")
	}
	select {
	case c.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ChanSink) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.ch)
		c.mu.Unlock()
	})
	return nil
}
