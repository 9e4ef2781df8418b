package store

import (
	"sync"

	"chat-relay/internal/models"

	"github.com/samber/lo"
)

// MessageLog is an append-only record of relayed messages. HistoryFor
// returns, in insertion order, every message the given user sent or
// received.
type MessageLog interface {
	Append(m models.Message) error
	HistoryFor(userID string) ([]models.Message, error)
	Len() int
	Close() error
}

// memoryLog holds messages for the lifetime of the process. Growth is
// unbounded; the pebble log exists for deployments that need more.
type memoryLog struct {
	mu       sync.Mutex
	messages []models.Message
}

func NewMemoryLog() MessageLog {
	return &memoryLog{messages: make([]models.Message, 0)}
}

func (l *memoryLog) Append(m models.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
	return nil
}

func (l *memoryLog) HistoryFor(userID string) ([]models.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo.Filter(l.messages, func(m models.Message, _ int) bool {
		return m.Involves(userID)
	}), nil
}

func (l *memoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func (l *memoryLog) Close() error { return nil }
