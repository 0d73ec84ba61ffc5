// Package journal keeps a history of apply and restore batches in a
// local Badger database, one entry per completed batch.
package journal

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"
	"time"
)

// keyPrefix namespaces batch entries in the database.
const keyPrefix = "b:"

// Result is one tweak outcome within a recorded batch.
type Result struct {
	TweakID string
	Name    string
	Outcome string
	Failure string
	Reason  string
}

// Entry is one recorded batch.
type Entry struct {
	ID      string
	Op      string
	Time    time.Time
	Summary string
	Results []Result
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// makeKey creates a database key that sorts chronologically.
// Format: b:<20-digit unix nanos>:<entry id>
func makeKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", keyPrefix, ts.UnixNano(), id))
}

// keyTime extracts the timestamp from a database key.
func keyTime(key []byte) (time.Time, error) {
	s := string(key)
	if len(s) < len(keyPrefix)+20 {
		return time.Time{}, fmt.Errorf("short journal key %q", s)
	}
	nanos, err := strconv.ParseInt(s[len(keyPrefix):len(keyPrefix)+20], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad journal key %q: %w", s, err)
	}
	return time.Unix(0, nanos), nil
}
