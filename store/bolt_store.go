package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/s0up4200/calc-consumer/calculator"
)

const interactionBucket = "interactions"

// boltStore implements a Store backed by BoltDB. Keys are the bucket sequence
// encoded big-endian so a cursor walks them in insertion order.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(interactionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Append stores one interaction after the previous ones.
func (b *boltStore) Append(interaction calculator.Interaction) error {
	value, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(interactionBucket))
		if bucket == nil {
			return fmt.Errorf("interaction bucket missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, value)
	})
}

// List returns all stored interactions, oldest first.
func (b *boltStore) List() ([]calculator.Interaction, error) {
	var out []calculator.Interaction
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(interactionBucket))
		if bucket == nil {
			return fmt.Errorf("interaction bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			var interaction calculator.Interaction
			if err := json.Unmarshal(v, &interaction); err != nil {
				return fmt.Errorf("decode interaction %x: %w", k, err)
			}
			out = append(out, interaction)
			return nil
		})
	})
	return out, err
}

// Clear removes every stored interaction.
func (b *boltStore) Clear() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(interactionBucket)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket([]byte(interactionBucket))
		return err
	})
}
