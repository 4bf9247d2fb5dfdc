// Package store provides boltdb-backed persistence for the pieces of
// cluster state the election core reads through its EpochSource and
// CheckpointSource ports.
package store

import (
	"errors"

	"github.com/boltdb/bolt"
)

var bucketName = []byte("election")

// BoltStore is a flat key/value store backed by a single bolt bucket.
type BoltStore struct {
	db *bolt.DB
}

func Open(path string) (BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltStore{}, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return BoltStore{}, err
	}
	return BoltStore{db: db}, nil
}

func (s BoltStore) Set(key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (s BoltStore) Get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v == nil {
			return errors.New("store: key does not exist")
		}
		val = make([]byte, len(v))
		copy(val, v)
		return nil
	})
	return val, err
}

func (s BoltStore) GetDefault(key, defaultVal []byte) ([]byte, error) {
	val, err := s.Get(key)
	if err != nil {
		return defaultVal, s.Set(key, defaultVal)
	}
	return val, nil
}

func (s BoltStore) Close() error {
	return s.db.Close()
}
