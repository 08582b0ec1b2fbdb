// Package ledger records the outcome of one generation run.
//
// A Ledger is created when a run starts, filled concurrently by the pipeline
// workers, and serialized exactly once when the run ends:
//
//	{
//	  "generated_on": "2024-05-01 13:37:00",
//	  "generated": {
//	    "images/a.jpg": {
//	      "jpg":  {"full": "images/a.jpg", "640": "images/a@640.jpg"},
//	      "webp": {"full": "images/a.webp", "640": "images/a@640.webp"}
//	    }
//	  },
//	  "errors": {
//	    "images/b.png": ["encode avif@full: unsupported format"]
//	  }
//	}
//
// Width keys are "full" or the base-10 breakpoint width.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ironsheep/image-craft/internal/storage"
)

// TimestampLayout is the layout of "generated_on".
const TimestampLayout = "2006-01-02 15:04:05"

// ErrAlreadyWritten is returned by a second call to Write.
var ErrAlreadyWritten = errors.New("ledger already written")

// Clock returns the current time.
type Clock func() time.Time

// Counts summarizes a run.
type Counts struct {
	// Discovered is the number of eligible sources found.
	Discovered int `json:"discovered"`

	// Processed counts sources that decoded, even when some of their
	// derivatives failed.
	Processed int `json:"processed"`

	// Failed counts sources with at least one recorded error.
	Failed int `json:"failed"`

	// Files and Bytes total the derivatives stored.
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	startedAt time.Time
	generated map[string]map[string]map[string]string
	errors    map[string][]string
	counts    Counts
	written   bool
}

// New starts a ledger stamped with clock's current time. A nil clock uses
// time.Now.
func New(clock Clock) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		startedAt: clock(),
		generated: make(map[string]map[string]map[string]string),
		errors:    make(map[string][]string),
	}
}

// StartedAt returns the run's timestamp.
func (l *Ledger) StartedAt() time.Time {
	return l.startedAt
}

// RecordGenerated records a stored derivative of src.
func (l *Ledger) RecordGenerated(src, format, widthKey, address string, n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	formats := l.generated[src]
	if formats == nil {
		formats = make(map[string]map[string]string)
		l.generated[src] = formats
	}
	widths := formats[format]
	if widths == nil {
		widths = make(map[string]string)
		formats[format] = widths
	}
	widths[widthKey] = address
	l.counts.Files++
	l.counts.Bytes += n
}

// RecordError appends a message to src's error list.
func (l *Ledger) RecordError(src, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors[src] = append(l.errors[src], message)
}

// Discovered counts one eligible source.
func (l *Ledger) Discovered() {
	l.mu.Lock()
	l.counts.Discovered++
	l.mu.Unlock()
}

// Processed counts one source that decoded.
func (l *Ledger) Processed() {
	l.mu.Lock()
	l.counts.Processed++
	l.mu.Unlock()
}

// Failed counts one source with errors.
func (l *Ledger) Failed() {
	l.mu.Lock()
	l.counts.Failed++
	l.mu.Unlock()
}

// Snapshot returns the current counters.
func (l *Ledger) Snapshot() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts
}

// Generated returns a copy of src's recorded addresses, format then width
// key. It returns nil when nothing was recorded.
func (l *Ledger) Generated(src string) map[string]map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	formats, ok := l.generated[src]
	if !ok {
		return nil
	}
	out := make(map[string]map[string]string, len(formats))
	for f, widths := range formats {
		cp := make(map[string]string, len(widths))
		for k, v := range widths {
			cp[k] = v
		}
		out[f] = cp
	}
	return out
}

// Errors returns a copy of src's error messages in recording order.
func (l *Ledger) Errors(src string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors[src]...)
}

// Addresses returns every recorded derivative address that is not itself a
// source path, sorted.
func (l *Ledger) Addresses() []string {
	l.mu.Lock()
	set := derivedAddresses(l.generated)
	l.mu.Unlock()

	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ReadAddresses loads the ledger written at path by an earlier run and
// returns the derivative addresses it recorded, as Addresses does. A missing
// ledger yields an empty set.
func ReadAddresses(ctx context.Context, disk storage.Disk, path string) (map[string]bool, error) {
	data, err := disk.Read(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", path, err)
	}
	return derivedAddresses(doc.Generated), nil
}

func derivedAddresses(generated map[string]map[string]map[string]string) map[string]bool {
	out := make(map[string]bool)
	for _, formats := range generated {
		for _, widths := range formats {
			for _, address := range widths {
				out[address] = true
			}
		}
	}
	for src := range generated {
		delete(out, src)
	}
	return out
}

type document struct {
	GeneratedOn string                                  `json:"generated_on"`
	Generated   map[string]map[string]map[string]string `json:"generated"`
	Errors      map[string][]string                     `json:"errors"`
}

// MarshalJSON implements json.Marshaler.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return json.Marshal(document{
		GeneratedOn: l.startedAt.Format(TimestampLayout),
		Generated:   l.generated,
		Errors:      l.errors,
	})
}

// Write serializes the ledger to path on disk. Only the first call writes;
// later calls return ErrAlreadyWritten whether or not the first succeeded.
func (l *Ledger) Write(ctx context.Context, disk storage.Disk, path string) error {
	l.mu.Lock()
	if l.written {
		l.mu.Unlock()
		return ErrAlreadyWritten
	}
	l.written = true
	l.mu.Unlock()

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	err = disk.Write(ctx, path, bytes.NewReader(data), storage.WriteOptions{
		Visibility:  storage.Private,
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", path, err)
	}
	return nil
}
