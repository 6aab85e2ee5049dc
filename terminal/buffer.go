package terminal

import (
	"strings"
	"sync"
	"time"
)

// Snapshot is the result of reading a terminal's retained output.
type Snapshot struct {
	Output     string
	Truncated  bool
	TotalBytes int
}

// Store holds the output buffers for all terminals, keyed by terminal id.
// Buffers are bounded: once a terminal's byte budget is exceeded, the oldest
// chunks are evicted so the most recent output is always retained in full.
type Store struct {
	mu      sync.Mutex
	buffers map[string]*buffer
}

type buffer struct {
	chunks    []string
	total     int
	limit     int
	truncated bool
	lastWrite time.Time
}

// NewStore creates an empty output buffer store.
func NewStore() *Store {
	return &Store{buffers: make(map[string]*buffer)}
}

// Init creates the buffer for a terminal. limit <= 0 falls back to
// DefaultOutputByteLimit.
func (s *Store) Init(terminalID string, limit int) {
	if limit <= 0 {
		limit = DefaultOutputByteLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[terminalID] = &buffer{limit: limit}
}

// Append adds a chunk of output. Sizing is byte-accurate: truncation must
// honor the protocol's byte budget, not a character count. When the budget
// is exceeded, whole chunks are evicted from the front until the buffer
// fits or a single chunk remains; a chunk larger than the entire limit is
// still retained whole. Appends to unknown terminals are dropped. Reports
// whether this append truncated the buffer for the first time.
func (s *Store) Append(terminalID, chunk string) bool {
	if chunk == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[terminalID]
	if !ok {
		return false
	}

	firstTruncation := false
	if b.total+len(chunk) > b.limit {
		firstTruncation = !b.truncated
		b.truncated = true
	}
	b.chunks = append(b.chunks, chunk)
	b.total += len(chunk)

	for b.total > b.limit && len(b.chunks) > 1 {
		b.total -= len(b.chunks[0])
		b.chunks = b.chunks[1:]
	}
	b.lastWrite = time.Now()
	return firstTruncation
}

// Read returns the retained output as one string plus the sticky truncated
// flag. Non-destructive: repeated reads return the same data. Unknown
// terminals read as empty.
func (s *Store) Read(terminalID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[terminalID]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		Output:     strings.Join(b.chunks, ""),
		Truncated:  b.truncated,
		TotalBytes: b.total,
	}
}

// LastWrite returns the timestamp of the most recent append. ok is false
// for unknown terminals; a zero time means no output has arrived yet.
func (s *Store) LastWrite(terminalID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[terminalID]
	if !ok {
		return time.Time{}, false
	}
	return b.lastWrite, true
}

// Dispose drops a terminal's buffer. Safe to call for unknown terminals.
func (s *Store) Dispose(terminalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, terminalID)
}
