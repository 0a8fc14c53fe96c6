package sink

import (
	"io"
	"log"
	"sync"
)

type Level string

const (
	LevelDebug Level = "D"
	LevelError Level = "E"
)

// Sink receives relayed log entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	Debug(tag, msg string)
	Error(tag, msg string, err error)
}

// Logger writes entries through a standard library logger using the
// Android-style "D/tag: msg" layout.
type Logger struct {
	l *log.Logger
}

// NewLogger creates a Logger writing to w. A nil w uses the standard logger.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		return &Logger{l: log.Default()}
	}
	return &Logger{l: log.New(w, "", log.LstdFlags)}
}

func (s *Logger) Debug(tag, msg string) {
	s.l.Printf("%s/%s: %s", LevelDebug, tag, msg)
}

func (s *Logger) Error(tag, msg string, err error) {
	if err != nil {
		s.l.Printf("%s/%s: %s: %v", LevelError, tag, msg, err)
		return
	}
	s.l.Printf("%s/%s: %s", LevelError, tag, msg)
}

// Tee sends every entry to all of its sinks, in order.
type Tee []Sink

func (t Tee) Debug(tag, msg string) {
	for _, s := range t {
		s.Debug(tag, msg)
	}
}

func (t Tee) Error(tag, msg string, err error) {
	for _, s := range t {
		s.Error(tag, msg, err)
	}
}

// Entry is a single recorded sink entry.
type Entry struct {
	Level Level
	Tag   string
	Msg   string
	Err   error
}

// Recorder keeps entries in memory. With a limit greater than zero only the
// most recent entries are kept.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
	lastErr *Entry
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Debug(tag, msg string) {
	r.add(Entry{Level: LevelDebug, Tag: tag, Msg: msg})
}

func (r *Recorder) Error(tag, msg string, err error) {
	e := Entry{Level: LevelError, Tag: tag, Msg: msg, Err: err}
	r.add(e)
	r.mu.Lock()
	r.lastErr = &e
	r.mu.Unlock()
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if r.limit > 0 && len(r.entries) > r.limit {
		// Drop the oldest entries, reallocating so the backing array doesn't grow forever.
		kept := make([]Entry, r.limit)
		copy(kept, r.entries[len(r.entries)-r.limit:])
		r.entries = kept
	}
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst := make([]Entry, len(r.entries))
	copy(dst, r.entries)
	return dst
}

// Filter returns the recorded entries at the given level.
func (r *Recorder) Filter(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// LastError returns the most recent error entry, if any. It survives
// eviction by the limit.
func (r *Recorder) LastError() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastErr == nil {
		return Entry{}, false
	}
	return *r.lastErr, true
}
