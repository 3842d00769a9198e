package bot

import (
	"sync"
	"time"
)

// DefaultMessagesPerMinute is the per-chat cap when none is configured.
const DefaultMessagesPerMinute = 20

// RateLimitedMessage answers messages over the cap.
const RateLimitedMessage = "⏳ Demasiados mensajes. Intenta de nuevo en un minuto."

const (
	rateWindow          = time.Minute
	rateCleanupInterval = 5 * time.Minute
	rateStaleAfter      = 10 * time.Minute
)

// chatLimiter caps how many messages per minute each chat may send, so one
// chat cannot flood the model with requests.
type chatLimiter struct {
	mu          sync.Mutex
	perMinute   int
	chats       map[int64]*chatWindow
	now         func() time.Time
	lastCleanup time.Time
}

type chatWindow struct {
	start    time.Time
	messages int
}

func newChatLimiter(perMinute int) *chatLimiter {
	return &chatLimiter{
		perMinute: perMinute,
		chats:     make(map[int64]*chatWindow),
		now:       time.Now,
	}
}

// Allow counts one message for chatID and reports whether it is within the
// limit.
func (l *chatLimiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > rateCleanupInterval {
		l.cleanupStale(now)
		l.lastCleanup = now
	}

	w, ok := l.chats[chatID]
	if !ok || now.Sub(w.start) > rateWindow {
		l.chats[chatID] = &chatWindow{start: now, messages: 1}
		return true
	}

	w.messages++
	return w.messages <= l.perMinute
}

func (l *chatLimiter) cleanupStale(now time.Time) {
	cutoff := now.Add(-rateStaleAfter)
	for id, w := range l.chats {
		if w.start.Before(cutoff) {
			delete(l.chats, id)
		}
	}
}

// ActiveChats returns the number of tracked chats.
func (l *chatLimiter) ActiveChats() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chats)
}
