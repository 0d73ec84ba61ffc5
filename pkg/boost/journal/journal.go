package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/arcboost/pkg/boost/engine"
	"github.com/jamesainslie/arcboost/pkg/boost/logging"
)

// ErrNotFound is returned when no journal entry has the requested id.
var ErrNotFound = errors.New("journal entry not found")

// Journal records batch history. A failed journal write never fails
// the batch it describes; callers treat Record errors as warnings.
type Journal struct {
	db  *badger.DB
	log *logging.Logger
}

// Open opens or creates a journal database in the given directory. A
// LOCK file left behind by a crashed run is removed and the open
// retried once.
func Open(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Cannot acquire directory lock") {
		logging.Get("journal").Warn("removing stale journal lock", "dir", dir)
		_ = os.Remove(filepath.Join(dir, "LOCK"))
		db, err = badger.Open(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &Journal{db: db, log: logging.Get("journal")}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores a batch report as a new journal entry.
func (j *Journal) Record(rep *engine.Report) (*Entry, error) {
	entry := &Entry{
		ID:      uuid.New().String(),
		Op:      string(rep.Op),
		Time:    rep.Started,
		Summary: rep.Summary(),
		Results: make([]Result, 0, len(rep.Results)),
	}
	for _, res := range rep.Results {
		entry.Results = append(entry.Results, Result{
			TweakID: res.ID,
			Name:    res.Name,
			Outcome: string(res.Outcome),
			Failure: string(res.Failure),
			Reason:  res.Reason(),
		})
	}

	value, err := entry.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode journal entry: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(entry.Time, entry.ID), value)
	})
	if err != nil {
		return nil, fmt.Errorf("write journal entry: %w", err)
	}

	j.log.Debug("recorded batch", "id", entry.ID, "op", entry.Op, "results", len(entry.Results))
	return entry, nil
}

// List returns up to limit entries, newest first. A limit of 0 or less
// returns everything.
func (j *Journal) List(limit int) ([]Entry, error) {
	entries := []Entry{}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)

		// In reverse mode Seek lands on the last key at or before the
		// target, so start just past the prefix range.
		seek := append([]byte{}, prefix...)
		seek = append(seek, 0xff)

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}

			var entry Entry
			if err := it.Item().Value(entry.Decode); err != nil {
				// Skip entries that can't be parsed
				j.log.Warn("skipping unreadable journal entry",
					"key", string(it.Item().Key()), "error", err)
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}

	return entries, nil
}

// Get retrieves a specific entry by id.
func (j *Journal) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry id cannot be empty")
	}

	var found *Entry
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// The id is the key suffix; skip non-matches without decoding.
			if !strings.HasSuffix(string(it.Item().Key()), ":"+id) {
				continue
			}

			var entry Entry
			if err := it.Item().Value(entry.Decode); err != nil {
				return err
			}
			found = &entry
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found, nil
}

// Prune removes entries older than retentionDays and reports how many
// were deleted.
func (j *Journal) Prune(retentionDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var stale [][]byte
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ts, err := keyTime(key)
			if err != nil {
				continue
			}
			if !ts.Before(cutoff) {
				// Keys sort chronologically; everything from here on is newer.
				break
			}
			stale = append(stale, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan journal: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}

	j.log.Info("pruned journal", "removed", len(stale), "older_than_days", retentionDays)
	return len(stale), nil
}
