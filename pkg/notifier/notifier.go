package notifier

import (
	"context"
	"errors"
	"sync"
)

// Mention addresses a notification to one member of the container.
type Mention struct {
	ID   int64
	Name string
}

type Notification struct {
	ContainerID int64
	// Mention is nil for container-wide messages.
	Mention *Mention
	Text    string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Broadcaster forwards every notification to all registered notifiers.
type Broadcaster struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

func NewBroadcaster(notifiers ...Notifier) *Broadcaster {
	return &Broadcaster{notifiers: notifiers}
}

func (b *Broadcaster) Register(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifiers = append(b.notifiers, n)
}

// Send delivers n to each notifier, even when one fails, and joins the errors.
func (b *Broadcaster) Send(ctx context.Context, n Notification) error {
	b.mu.RLock()
	notifiers := append([]Notifier(nil), b.notifiers...)
	b.mu.RUnlock()

	var errs []error
	for _, target := range notifiers {
		if err := target.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
