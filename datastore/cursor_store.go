package datastore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// CursorStore persists the cyclic broadcast index: a single integer that
// walks the tabular fallback content round-robin. The state file holds
// the index that was last served; a missing file means the cycle has not
// started yet.
type CursorStore struct {
	mu   sync.Mutex
	path string
}

func NewCursorStore(path string) *CursorStore {
	return &CursorStore{path: path}
}

// Advance returns the next index modulo rowCount and persists it before
// returning, so concurrent callers can never serve the same row twice.
func (c *CursorStore) Advance(rowCount int) (int, error) {
	if rowCount <= 0 {
		return 0, fmt.Errorf("cannot advance cursor over %d rows", rowCount)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok, err := c.read()
	if err != nil {
		return 0, err
	}

	next := 0
	if ok {
		next = (last + 1) % rowCount
	}

	if err := os.WriteFile(c.path, []byte(strconv.Itoa(next)), 0644); err != nil {
		return 0, fmt.Errorf("failed to write cursor file %s: %w", c.path, err)
	}
	return next, nil
}

// read reports the persisted index and whether one exists. Callers must
// hold the mutex.
func (c *CursorStore) read() (int, bool, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read cursor file %s: %w", c.path, err)
	}

	last, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, false, fmt.Errorf("malformed cursor file %s: %w", c.path, err)
	}
	return last, true, nil
}
