// Package storage keeps a persistent history of score predictions.
// It uses BoltDB as the underlying storage engine, one JSON record per
// prediction keyed by creation time, so range and newest-first scans are
// plain cursor walks.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"student-predictor/internal/ml"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for prediction records
	keyPrefix         = "pred_"
	dbFile            = "predictions.db"
)

// WriteObserver is notified of every write outcome.
type WriteObserver interface {
	HistoryWriteInc(ok bool)
}

// Store provides persistent storage for predictions using BoltDB.
type Store struct {
	db       *bbolt.DB
	observer WriteObserver
}

// New creates a new storage instance under dataPath, creating the directory
// and bucket when missing.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SetObserver attaches a write observer, typically the metrics wrapper.
func (s *Store) SetObserver(o WriteObserver) {
	s.observer = o
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordPrediction implements ml.HistoryRecorder.
func (s *Store) RecordPrediction(p ml.Prediction) error {
	err := s.StorePrediction(p)
	if s.observer != nil {
		s.observer.HistoryWriteInc(err == nil)
	}
	return err
}

// StorePrediction stores p under "pred_<unixnano>" of its creation time. A key
// collision moves the record one nanosecond later so nothing is overwritten.
func (s *Store) StorePrediction(p ml.Prediction) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		ts := p.CreatedAt.UnixNano()
		key := predictionKey(ts)
		for b.Get(key) != nil {
			ts++
			key = predictionKey(ts)
		}
		return b.Put(key, data)
	})
}

// Recent returns up to n predictions, newest first.
func (s *Store) Recent(n int) ([]ml.Prediction, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]ml.Prediction, 0, n)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var p ml.Prediction
			if err := json.Unmarshal(v, &p); err != nil {
				continue // Skip malformed records
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// GetPredictions returns predictions created within [start, end], oldest first.
func (s *Store) GetPredictions(start, end time.Time) ([]ml.Prediction, error) {
	var out []ml.Prediction

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		startKey := predictionKey(start.UnixNano())
		endKey := predictionKey(end.UnixNano())
		prefix := []byte(keyPrefix)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}
			var p ml.Prediction
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// Count returns the number of stored predictions.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

func predictionKey(unixNano int64) []byte {
	return []byte(fmt.Sprintf("%s%019d", keyPrefix, unixNano))
}

var _ ml.HistoryRecorder = (*Store)(nil)
