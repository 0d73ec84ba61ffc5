// Package state persists the applied-tweak record: which tweaks are
// currently applied, what each replaced, and when.
//
// The record is a single JSON object keyed by tweak id:
//
//	{
//	  "game_mode_enable": {
//	    "priorState": [{"key": {...}, "value": {"kind": "absent"}}],
//	    "appliedAt": "2026-08-25T18:04:05Z"
//	  }
//	}
//
// Entry order is insertion order and survives load/save cycles, so
// restore can replay entries in the order they were applied. Entries
// whose ids the running build does not recognize are preserved
// byte-for-byte; a newer or older arcboost may still need them.
//
// Every mutation rewrites the file atomically (write temp, rename)
// before it returns. A failed save rolls the in-memory record back so
// memory never disagrees with disk.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

var (
	// ErrCorrupt indicates the record file exists but cannot be parsed.
	// The store refuses to load so a damaged record is never silently
	// replaced.
	ErrCorrupt = errors.New("state record is corrupt")

	// ErrNotFound indicates the record has no entry for the id.
	ErrNotFound = errors.New("no record entry")
)

// Entry is one applied tweak: the opaque prior-state capture its action
// produced and the time it was applied.
type Entry struct {
	PriorState json.RawMessage `json:"priorState"`
	AppliedAt  time.Time       `json:"appliedAt"`
}

// Store is the in-memory view of the record file. All methods are safe
// for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	ids  []string
	raw  map[string]json.RawMessage
}

// Open loads the record at path. A missing file is an empty record, not
// an error. A file that exists but does not parse returns ErrCorrupt.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		raw:  make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state record %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	if err := s.decode(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return s, nil
}

// decode parses the record token by token so entry order and the
// verbatim bytes of each entry are kept, including entries this build
// cannot interpret.
func (s *Store) decode(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected an object, found %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected a string key, found %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("entry %q: %w", id, err)
		}

		// On a duplicate key the last value wins but the entry keeps
		// its first position, matching what most JSON tools would do.
		if _, dup := s.raw[id]; !dup {
			s.ids = append(s.ids, id)
		}
		s.raw[id] = raw
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after record object")
	}
	return nil
}

// Path returns the record file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of record entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the entry ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Has reports whether the record has an entry for id.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.raw[id]
	return ok
}

// Get decodes the entry for id.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.raw[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w for %q", ErrNotFound, id)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry %q: %w", id, err)
	}
	return e, nil
}

// Set writes the entry for id and persists the record. An existing
// entry is overwritten in place, keeping its position. If persisting
// fails the in-memory record is rolled back and the error returned.
func (s *Store) Set(id string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry %q: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.raw[id]
	s.raw[id] = raw
	if !existed {
		s.ids = append(s.ids, id)
	}

	if err := s.save(); err != nil {
		if existed {
			s.raw[id] = prev
		} else {
			delete(s.raw, id)
			s.ids = s.ids[:len(s.ids)-1]
		}
		return err
	}
	return nil
}

// Remove deletes the entry for id and persists the record. Removing a
// missing id is a no-op. If persisting fails the entry is reinstated at
// its old position and the error returned.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.raw[id]
	if !existed {
		return nil
	}

	pos := slices.Index(s.ids, id)
	delete(s.raw, id)
	s.ids = slices.Delete(s.ids, pos, pos+1)

	if err := s.save(); err != nil {
		s.raw[id] = prev
		s.ids = slices.Insert(s.ids, pos, id)
		return err
	}
	return nil
}

// save rewrites the record file atomically: encode, write to a temp
// file next to the target, rename over it.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, s.encode(), 0o644); err != nil {
		return fmt.Errorf("write state record: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace state record: %w", err)
	}
	return nil
}

// encode renders the record object with one entry per line, entries in
// insertion order and their bytes verbatim.
func (s *Store) encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  ")
		key, _ := json.Marshal(id)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(s.raw[id])
	}
	if len(s.ids) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}
