// Package state persists snapshots of GUI values, so that a script can save
// the scalars and labels it drives and restore them later.
//
// Snapshots are kept in a bbolt database. Each snapshot is a bucket under a
// common root bucket, holding one key per value: "scalar/<label>" or
// "label/<label>". Values are encoded with the codec package.
package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"src.guictl.dev/pkg/api"
	"src.guictl.dev/pkg/codec"
)

// ErrNoSnapshot is returned when loading or deleting a snapshot that does not
// exist.
var ErrNoSnapshot = errors.New("no such snapshot")

const (
	bucketSnapshots = "snapshots"
	prefixScalar    = "scalar/"
	prefixLabel     = "label/"
)

// Snapshot holds saved values, keyed by label.
type Snapshot struct {
	Scalars map[string]api.Value
	Labels  map[string]string
}

// Store is a database of snapshots.
type Store struct {
	db *bolt.DB
}

// Open opens a Store, creating the database file if it does not exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

// Close closes the Store.
func (s *Store) Close() error { return s.db.Close() }

// Save saves a snapshot, replacing any snapshot with the same name.
func (s *Store) Save(name string, snap Snapshot) error {
	if name == "" {
		return fmt.Errorf("save: empty snapshot name")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(bucketSnapshots))
		if root.Bucket([]byte(name)) != nil {
			if err := root.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		b, err := root.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		for label, v := range snap.Scalars {
			data, err := api.EncodeValue(v)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(prefixScalar+label), data); err != nil {
				return err
			}
		}
		for label, text := range snap.Labels {
			data, err := codec.Marshal(text)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(prefixLabel+label), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load loads a snapshot.
func (s *Store) Load(name string) (Snapshot, error) {
	snap := Snapshot{Scalars: map[string]api.Value{}, Labels: map[string]string{}}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots)).Bucket([]byte(name))
		if b == nil {
			return fmt.Errorf("%s: %w", name, ErrNoSnapshot)
		}
		return b.ForEach(func(k, v []byte) error {
			key := string(k)
			switch {
			case strings.HasPrefix(key, prefixScalar):
				value, err := api.DecodeValue(v)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				snap.Scalars[strings.TrimPrefix(key, prefixScalar)] = value
			case strings.HasPrefix(key, prefixLabel):
				var text string
				if err := codec.Unmarshal(v, &text); err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				snap.Labels[strings.TrimPrefix(key, prefixLabel)] = text
			}
			return nil
		})
	})
	return snap, err
}

// Names returns the names of all snapshots, in lexicographical order.
func (s *Store) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshots)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete deletes a snapshot.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(bucketSnapshots)).DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("%s: %w", name, ErrNoSnapshot)
		}
		return err
	})
}
