package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"chat-relay/internal/models"

	"github.com/cockroachdb/pebble"
)

const msgPrefix = "msg:"

// pebbleLog is the persistent MessageLog. Keys carry a zero-padded
// nanosecond timestamp plus a sequence counter so iteration order is
// insertion order even when timestamps collide.
type pebbleLog struct {
	db  *pebble.DB
	seq uint64
}

func OpenPebbleLog(dir string) (MessageLog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open message log at %s: %w", dir, err)
	}
	log.Printf("[STORE] Pebble message log opened at %s", dir)
	return &pebbleLog{db: db}, nil
}

func (l *pebbleLog) Append(m models.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&l.seq, 1)
	key := fmt.Sprintf("%s%020d-%06d", msgPrefix, ts, s)

	if err := l.db.Set([]byte(key), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (l *pebbleLog) HistoryFor(userID string) ([]models.Message, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	prefix := []byte(msgPrefix)
	out := make([]models.Message, 0)
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			log.Printf("[STORE] Skipping unreadable message at %s: %v", iter.Key(), err)
			continue
		}
		if m.Involves(userID) {
			out = append(out, m)
		}
	}
	return out, iter.Error()
}

func (l *pebbleLog) Len() int {
	iter, err := l.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0
	}
	defer iter.Close()

	prefix := []byte(msgPrefix)
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		n++
	}
	return n
}

func (l *pebbleLog) Close() error {
	return l.db.Close()
}
