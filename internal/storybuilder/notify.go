package storybuilder

import (
	"sync"
	"time"
)

// Level is the severity of a user notification.
type Level string

// Notification levels
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a transient, user-visible message (a toast).
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives notifications raised by the builder. Notify is called
// with no builder lock held, so it may call back into the Builder.
type Notifier interface {
	Notify(n Notification)
}

// NotificationLog is a Notifier that keeps every notification in memory.
type NotificationLog struct {
	mu    sync.Mutex
	items []Notification
}

// Notify records n.
func (l *NotificationLog) Notify(n Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, n)
}

// All returns a copy of every notification recorded so far.
func (l *NotificationLog) All() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notification(nil), l.items...)
}

// Last returns the most recent notification.
func (l *NotificationLog) Last() (Notification, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.items) == 0 {
		return Notification{}, false
	}
	return l.items[len(l.items)-1], true
}

// Drain returns and clears every notification.
func (l *NotificationLog) Drain() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.items
	l.items = nil
	return out
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
