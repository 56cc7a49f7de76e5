package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"chatbot/models"
)

var exchangesBucket = []byte("exchanges")

// BoltStore records exchanges in a local bbolt file. Keys sort by time so
// a reverse cursor walk yields newest first.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens path, creating the file and bucket if needed.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(exchangesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func boltKey(ex models.Exchange) []byte {
	// fixed-width UTC timestamp keeps lexical order equal to time order
	return []byte(ex.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z") + "/" + ex.ID)
}

func (s *BoltStore) Save(_ context.Context, ex models.Exchange) error {
	value, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(exchangesBucket).Put(boltKey(ex), value)
	})
}

func (s *BoltStore) Recent(_ context.Context, limit int) ([]models.Exchange, error) {
	var exchanges []models.Exchange
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(exchangesBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(exchanges) >= limit {
				break
			}
			var ex models.Exchange
			if err := json.Unmarshal(v, &ex); err != nil {
				return fmt.Errorf("decode exchange %s: %w", k, err)
			}
			exchanges = append(exchanges, ex)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exchanges, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
