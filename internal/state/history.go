package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/entrastudio/token-studio/internal/models"
)

// historyKey builds a lexicographically ordered bucket key so eviction
// can walk from the oldest entry with a cursor.
func historyKey(at time.Time, id string) []byte {
	return fmt.Appendf(nil, "%020d-%s", at.UnixNano(), id)
}

// AppendHistory records a token acquisition. The history is capped at
// historyLimit entries; the oldest are evicted in the same transaction.
func (s *State) AppendHistory(item models.HistoryItem) (*models.HistoryItem, error) {
	item.ID = uuid.NewString()

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)

		data, err := json.Marshal(item)
		if err != nil {
			return err
		}

		if err := b.Put(historyKey(item.CreatedAt, item.ID), data); err != nil {
			return err
		}

		var keys [][]byte

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}

		for _, k := range keys[:max(0, len(keys)-historyLimit)] {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// AllHistory returns history entries, newest first.
func (s *State) AllHistory() ([]models.HistoryItem, error) {
	var items []models.HistoryItem

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item models.HistoryItem
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}

			items = append(items, item)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// ClearHistory deletes all history entries.
func (s *State) ClearHistory() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(historyBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucket(historyBucket)

		return err
	})
}
