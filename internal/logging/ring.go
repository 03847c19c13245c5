package logging

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultRingSize is how many entries the system log keeps.
const DefaultRingSize = 50

// Entry is one system log line.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Message string
}

// Ring is a zapcore.Core that keeps the most recent Info+ entries in
// memory. Cores derived through With share the same buffer.
type Ring struct {
	zapcore.LevelEnabler
	buf *ringBuf
}

type ringBuf struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	count   int
}

// NewRing returns a ring holding up to size entries.
func NewRing(size int) *Ring {
	if size < 1 {
		size = DefaultRingSize
	}
	return &Ring{
		LevelEnabler: zapcore.InfoLevel,
		buf:          &ringBuf{entries: make([]Entry, size)},
	}
}

// With ignores fields; system log lines are message only.
func (r *Ring) With([]zapcore.Field) zapcore.Core { return r }

// Check adds the ring to ce when the entry's level is enabled.
func (r *Ring) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if r.Enabled(e.Level) {
		return ce.AddCore(e, r)
	}
	return ce
}

// Write stores the entry, evicting the oldest when full.
func (r *Ring) Write(e zapcore.Entry, _ []zapcore.Field) error {
	b := r.buf
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = Entry{Time: e.Time, Level: e.Level, Message: e.Message}
	b.head = (b.head + 1) % len(b.entries)
	if b.count < len(b.entries) {
		b.count++
	}
	return nil
}

// Sync is a no-op.
func (r *Ring) Sync() error { return nil }

// Entries returns the stored entries, newest first.
func (r *Ring) Entries() []Entry {
	b := r.buf
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, 0, b.count)
	for i := 1; i <= b.count; i++ {
		idx := (b.head - i + len(b.entries)) % len(b.entries)
		out = append(out, b.entries[idx])
	}
	return out
}
