package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/evdms/dealer-console/internal/domain"
)

// LogNotifier writes notices to the structured log. Used standalone in
// tests and tools, and as the tail of the buffered notifier in the server.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) Notify(message string, level domain.NotifyLevel) {
	switch level {
	case domain.NotifyError:
		n.Log.Error().Msg(message)
	case domain.NotifyWarning:
		n.Log.Warn().Msg(message)
	default:
		n.Log.Info().Msg(message)
	}
}

type Notice struct {
	Message string             `json:"message"`
	Level   domain.NotifyLevel `json:"level"`
}

// Buffer collects notices per session so the HTTP layer can hand them to
// the console as toasts. Bounded; oldest notices drop first.
type Buffer struct {
	mu      sync.Mutex
	notices []Notice
	max     int
	next    domain.Notifier
}

func NewBuffer(max int, next domain.Notifier) *Buffer {
	if max <= 0 {
		max = 20
	}
	return &Buffer{max: max, next: next}
}

func (b *Buffer) Notify(message string, level domain.NotifyLevel) {
	b.mu.Lock()
	b.notices = append(b.notices, Notice{Message: message, Level: level})
	if len(b.notices) > b.max {
		b.notices = b.notices[len(b.notices)-b.max:]
	}
	b.mu.Unlock()
	if b.next != nil {
		b.next.Notify(message, level)
	}
}

// Drain returns pending notices and clears the buffer.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}
