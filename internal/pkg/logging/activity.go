package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const DefaultActivitySize = 100

// Entry is one line of the activity log.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// ring is shared by an ActivityLog and the handlers derived from it.
type ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func (r *ring) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Entry(nil), r.entries[:r.next]...)
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// ActivityLog is a slog.Handler keeping the last N records in memory,
// rendered as "msg key=value ...".
type ActivityLog struct {
	ring   *ring
	level  slog.Level
	attrs  string
	prefix string
}

func NewActivityLog(size int, level slog.Level) *ActivityLog {
	if size <= 0 {
		size = DefaultActivitySize
	}
	return &ActivityLog{ring: &ring{entries: make([]Entry, size)}, level: level}
}

// Entries returns the kept records, oldest first.
func (a *ActivityLog) Entries() []Entry {
	return a.ring.snapshot()
}

func (a *ActivityLog) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= a.level
}

func (a *ActivityLog) Handle(ctx context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Message)
	b.WriteString(a.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, a.prefix, attr)
		return true
	})
	a.ring.add(Entry{Time: record.Time, Level: record.Level.String(), Message: b.String()})
	return nil
}

func (a *ActivityLog) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(a.attrs)
	for _, attr := range attrs {
		// service label is noise in a single-process view
		if attr.Key == "service" && a.prefix == "" {
			continue
		}
		writeAttr(&b, a.prefix, attr)
	}
	clone := *a
	clone.attrs = b.String()
	return &clone
}

func (a *ActivityLog) WithGroup(name string) slog.Handler {
	if name == "" {
		return a
	}
	clone := *a
	clone.prefix = a.prefix + name + "."
	return &clone
}

func writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, g := range attr.Value.Group() {
			writeAttr(b, prefix+attr.Key+".", g)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, attr.Key, attr.Value.Any())
}
