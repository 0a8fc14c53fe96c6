package relay

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angch/logrelay/metrics"
	"github.com/angch/logrelay/sink"
	"github.com/angch/logrelay/sources"
)

// DefaultTag is the component name attached to every sink entry.
const DefaultTag = "LogRelay"

// maxLineSize bounds a single line read from the tool.
const maxLineSize = 1024 * 1024

type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a point-in-time view of a relay.
type Stats struct {
	State     State  `json:"-"`
	StateName string `json:"state"`
	Forwarded uint64 `json:"forwarded"`
	Dropped   uint64 `json:"dropped"`
	Errors    uint64 `json:"errors"`
}

// Relay streams the output of a log tool, drops lines matching Filters and
// forwards the rest to Sink at debug level.
type Relay struct {
	Tool    sources.Tool
	Filters FilterList
	Sink    sink.Sink
	Tag     string

	verbose atomic.Bool
	state   atomic.Int32
	closed  atomic.Bool

	forwarded atomic.Uint64
	dropped   atomic.Uint64
	failures  atomic.Uint64

	mu     sync.Mutex
	source *sources.CommandSource
	done   chan struct{}
}

// New creates a relay for tool using the default filter list and tag.
// Fields may be adjusted before Install is called.
func New(tool sources.Tool, s sink.Sink, verbose bool) *Relay {
	r := &Relay{
		Tool:    tool,
		Filters: DefaultFilters(),
		Sink:    s,
		Tag:     DefaultTag,
		done:    make(chan struct{}),
	}
	r.verbose.Store(verbose)
	return r
}

// SetVerbose toggles lifecycle logging while the relay runs.
func (r *Relay) SetVerbose(v bool) {
	r.verbose.Store(v)
}

// Install starts relaying on a new goroutine and returns immediately.
// Only the first call has an effect; a relay never restarts.
func (r *Relay) Install() {
	if !r.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return
	}
	go r.run()
}

// ClearLogs runs the tool's clear command and waits for it. Failures are
// reported to the sink and never returned.
func (r *Relay) ClearLogs() {
	if len(r.Tool.Clear) == 0 {
		r.fail("clear", "Failed to clear logs", fmt.Errorf("no clear command for %s", r.Tool.Name))
		return
	}
	if err := sources.Run(r.Tool.Clear); err != nil {
		r.fail("clear", "Failed to clear logs", err)
		return
	}
	if r.verbose.Load() {
		log.Printf("Cleared %s buffer", r.Tool.Name)
	}
}

// Close kills the stream process, which ends the relay goroutine.
func (r *Relay) Close() error {
	r.closed.Store(true)
	r.mu.Lock()
	src := r.source
	r.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Close()
}

// Done is closed once the relay goroutine has exited. It never closes for
// a relay that was not installed.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// State returns the current lifecycle state.
func (r *Relay) State() State {
	return State(r.state.Load())
}

// Pid returns the pid of the stream process, or 0 if there is none.
func (r *Relay) Pid() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.source == nil || r.State() != StateRunning {
		return 0
	}
	return r.source.Pid()
}

func (r *Relay) Stats() Stats {
	st := r.State()
	return Stats{
		State:     st,
		StateName: st.String(),
		Forwarded: r.forwarded.Load(),
		Dropped:   r.dropped.Load(),
		Errors:    r.failures.Load(),
	}
}

func (r *Relay) run() {
	defer close(r.done)
	defer r.state.Store(int32(StateStopped))

	name := r.Tool.Name
	metrics.RelayRunning.WithLabelValues(name).Set(1)
	defer metrics.RelayRunning.WithLabelValues(name).Set(0)

	if r.verbose.Load() {
		log.Printf("Starting relay for %s", name)
	}

	if len(r.Tool.Clear) > 0 {
		if err := sources.Run(r.Tool.Clear); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				r.fail("stream", "Failed to relay logs", err)
				return
			}
			// The tool exists but refused to clear; streaming can still work.
			if r.verbose.Load() {
				log.Printf("Clearing %s buffer failed: %v", name, err)
			}
		}
	}

	if len(r.Tool.Stream) == 0 {
		r.fail("stream", "Failed to relay logs", fmt.Errorf("no stream command for %s", name))
		return
	}

	src := r.Tool.Source()
	r.mu.Lock()
	r.source = src
	r.mu.Unlock()
	if r.closed.Load() {
		return
	}

	reader, err := src.Stream()
	if err != nil {
		r.fail("stream", "Failed to relay logs", err)
		return
	}

	forwarded := metrics.LinesForwardedTotal.WithLabelValues(name)
	dropped := metrics.LinesDroppedTotal.WithLabelValues(name)
	lastActivity := metrics.LastActivityTimestamp.WithLabelValues(name)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		lastActivity.Set(float64(time.Now().Unix()))

		if r.Filters.Match(line) {
			r.dropped.Add(1)
			dropped.Inc()
			continue
		}
		r.Sink.Debug(r.Tag, line)
		r.forwarded.Add(1)
		forwarded.Inc()
	}

	if err := scanner.Err(); err != nil && !r.closed.Load() {
		r.fail("stream", "Failed to relay logs", err)
		// The process may still be writing; it has to go before it can be reaped.
		src.Close()
	}

	if err := src.Wait(); err != nil && r.verbose.Load() && !r.closed.Load() {
		log.Printf("%s exited: %v", name, err)
	}

	if r.verbose.Load() {
		log.Printf("Relay for %s stopped", name)
	}
}

func (r *Relay) fail(op, msg string, err error) {
	r.failures.Add(1)
	metrics.ErrorsTotal.WithLabelValues(r.Tool.Name, op).Inc()
	r.Sink.Error(r.Tag, msg, err)
}
