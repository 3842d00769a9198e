package worker

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// seenSet remembers recently mirrored event IDs so a redelivered message is
// not appended twice. Entries expire after ttl and the oldest are evicted
// beyond maxSize.
type seenSet struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[uuid.UUID]*list.Element
	lru     *list.List
}

type seenItem struct {
	id        uuid.UUID
	expiresAt time.Time
}

func newSeenSet(maxSize int, ttl time.Duration) *seenSet {
	return &seenSet{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[uuid.UUID]*list.Element),
		lru:     list.New(),
	}
}

// Contains reports whether id was added and has not expired.
func (s *seenSet) Contains(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return false
	}
	if s.now().After(elem.Value.(*seenItem).expiresAt) {
		s.removeElement(elem)
		return false
	}
	s.lru.MoveToFront(elem)
	return true
}

// Add records id, evicting the least recently used entry when full.
func (s *seenSet) Add(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &seenItem{id: id, expiresAt: s.now().Add(s.ttl)}
	if elem, ok := s.items[id]; ok {
		elem.Value = item
		s.lru.MoveToFront(elem)
		return
	}

	s.items[id] = s.lru.PushFront(item)
	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
}

// CleanExpired drops expired entries and returns how many were removed.
func (s *seenSet) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*seenItem).expiresAt) {
			s.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (s *seenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *seenSet) removeElement(elem *list.Element) {
	delete(s.items, elem.Value.(*seenItem).id)
	s.lru.Remove(elem)
}
