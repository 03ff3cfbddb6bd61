// Package notify surfaces failures and confirmations to the user without blocking the caller.
package notify

import (
	"context"
	"sync/atomic"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is one message for the user.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier accepts notifications. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Error builds an error notification.
func Error(msg string, err error) Notification {
	return Notification{Level: LevelError, Message: msg, Err: err}
}

// Info builds an informational notification.
func Info(msg string) Notification {
	return Notification{Level: LevelInfo, Message: msg}
}

// Queue buffers notifications for a front end to drain. When the buffer is full
// new notifications are dropped and counted instead of blocking.
type Queue struct {
	ch      chan Notification
	dropped atomic.Int64
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Notification, size)}
}

func (q *Queue) Notify(_ context.Context, n Notification) {
	select {
	case q.ch <- n:
	default:
		q.dropped.Add(1)
	}
}

// Drain returns every buffered notification without waiting.
func (q *Queue) Drain() []Notification {
	var out []Notification
	for {
		select {
		case n := <-q.ch:
			out = append(out, n)
		default:
			return out
		}
	}
}

// Dropped reports how many notifications were discarded because the buffer was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}
