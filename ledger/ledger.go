// Package ledger is the append-only, date-partitioned attendance record.
//
// Ledger is not safe for concurrent use on its own; guard.Controller owns it.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"SECUREATTEND/helper"
	"SECUREATTEND/models"
	"SECUREATTEND/storage"
)

// SnapshotKey is the backend key of the persisted ledger.
const SnapshotKey = "attendance"

type partition struct {
	names []string
	times map[string][]time.Time
}

func (p *partition) clone() *partition {
	out := &partition{
		names: append([]string(nil), p.names...),
		times: make(map[string][]time.Time, len(p.times)),
	}
	for name, ts := range p.times {
		out.times[name] = append([]time.Time(nil), ts...)
	}
	return out
}

// Ledger maps date -> name -> timestamps in append order.
type Ledger struct {
	backend storage.Backend
	dedup   time.Duration
	dates   map[string]*partition
}

type Option func(*Ledger)

// WithDedupWindow skips a check-in that falls within d of the identity's previous entry
// on the same date. Zero records every check-in.
func WithDedupWindow(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.dedup = d
		}
	}
}

func New(backend storage.Backend, opts ...Option) *Ledger {
	l := &Ledger{
		backend: backend,
		dates:   make(map[string]*partition),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type nameEntry struct {
	Name       string      `json:"name"`
	Timestamps []time.Time `json:"timestamps"`
}

type dateEntry struct {
	Date    string      `json:"date"`
	Entries []nameEntry `json:"entries"`
}

type document struct {
	Dates []dateEntry `json:"dates"`
}

func encode(dates map[string]*partition) ([]byte, error) {
	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := document{Dates: make([]dateEntry, 0, len(keys))}
	for _, k := range keys {
		p := dates[k]
		de := dateEntry{Date: k, Entries: make([]nameEntry, 0, len(p.names))}
		for _, name := range p.names {
			de.Entries = append(de.Entries, nameEntry{Name: name, Timestamps: p.times[name]})
		}
		doc.Dates = append(doc.Dates, de)
	}
	return json.Marshal(doc)
}

// Load replaces the in-memory ledger with the persisted snapshot.
func (l *Ledger) Load(ctx context.Context) error {
	data, err := l.backend.Load(ctx, SnapshotKey)
	if errors.Is(err, storage.ErrNotFound) {
		l.dates = make(map[string]*partition)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load attendance: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode attendance: %w", err)
	}

	dates := make(map[string]*partition, len(doc.Dates))
	for _, de := range doc.Dates {
		key, err := helper.ParseDateKey(de.Date)
		if err != nil {
			return fmt.Errorf("decode attendance: %w", err)
		}
		if _, ok := dates[key]; ok {
			return fmt.Errorf("decode attendance: duplicate date %s", key)
		}
		p := &partition{times: make(map[string][]time.Time, len(de.Entries))}
		for _, ne := range de.Entries {
			if _, ok := p.times[ne.Name]; ok {
				return fmt.Errorf("decode attendance: duplicate name %q on %s", ne.Name, key)
			}
			for i := 1; i < len(ne.Timestamps); i++ {
				if ne.Timestamps[i].Before(ne.Timestamps[i-1]) {
					return fmt.Errorf("decode attendance: %q on %s: %w", ne.Name, key, models.ErrNonMonotonic)
				}
			}
			p.names = append(p.names, ne.Name)
			p.times[ne.Name] = ne.Timestamps
		}
		dates[key] = p
	}

	l.dates = dates
	return nil
}

// Persist writes the whole ledger as one snapshot.
func (l *Ledger) Persist(ctx context.Context) error {
	return l.write(ctx, l.dates)
}

func (l *Ledger) write(ctx context.Context, dates map[string]*partition) error {
	data, err := encode(dates)
	if err != nil {
		return fmt.Errorf("encode attendance: %w", err)
	}
	if err := l.backend.Replace(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("persist attendance: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Backup writes the current ledger under a different key of the same backend.
func (l *Ledger) Backup(ctx context.Context, key string) error {
	data, err := encode(l.dates)
	if err != nil {
		return fmt.Errorf("encode attendance: %w", err)
	}
	if err := l.backend.Replace(ctx, key, data); err != nil {
		return fmt.Errorf("backup attendance: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Record appends one timestamp. It reports false when the dedup window swallowed the entry.
func (l *Ledger) Record(ctx context.Context, date, name string, ts time.Time) (bool, error) {
	recorded, err := l.RecordBatch(ctx, date, []models.AttendanceEntry{{Name: name, Timestamp: ts}})
	if err != nil {
		return false, err
	}
	return recorded[0], nil
}

// RecordBatch appends several entries to one date partition with a single snapshot write.
// Either all accepted entries become durable or none do.
func (l *Ledger) RecordBatch(ctx context.Context, date string, entries []models.AttendanceEntry) ([]bool, error) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	recorded := make([]bool, len(entries))
	if len(entries) == 0 {
		return recorded, nil
	}

	var p *partition
	if old, ok := l.dates[key]; ok {
		p = old.clone()
	} else {
		p = &partition{times: make(map[string][]time.Time)}
	}

	changed := false
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("record attendance: name is required: %w", models.ErrInvalidInput)
		}
		ts := e.Timestamp.Round(0).UTC()

		seq, seen := p.times[name]
		if n := len(seq); n > 0 {
			last := seq[n-1]
			if ts.Before(last) {
				return nil, fmt.Errorf("record %q on %s: %w", name, key, models.ErrNonMonotonic)
			}
			if l.dedup > 0 && ts.Sub(last) < l.dedup {
				continue
			}
		}
		if !seen {
			p.names = append(p.names, name)
		}
		p.times[name] = append(seq, ts)
		recorded[i] = true
		changed = true
	}
	if !changed {
		return recorded, nil
	}

	next := make(map[string]*partition, len(l.dates)+1)
	for k, v := range l.dates {
		next[k] = v
	}
	next[key] = p

	if err := l.write(ctx, next); err != nil {
		return nil, err
	}
	l.dates = next
	return recorded, nil
}

// Query returns name -> timestamps for date. Unknown dates yield an empty map.
func (l *Ledger) Query(date string) (map[string][]time.Time, error) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]time.Time)
	p, ok := l.dates[key]
	if !ok {
		return out, nil
	}
	for name, ts := range p.times {
		out[name] = append([]time.Time(nil), ts...)
	}
	return out, nil
}

// Last is the most recent timestamp of name on date.
func (l *Ledger) Last(date, name string) (time.Time, bool) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return time.Time{}, false
	}
	p, ok := l.dates[key]
	if !ok {
		return time.Time{}, false
	}
	seq := p.times[strings.TrimSpace(name)]
	if len(seq) == 0 {
		return time.Time{}, false
	}
	return seq[len(seq)-1], true
}

// Names lists the identities present on date in order of first check-in.
func (l *Ledger) Names(date string) ([]string, error) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	p, ok := l.dates[key]
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), p.names...), nil
}

// Dates lists every partition in ascending order.
func (l *Ledger) Dates() []string {
	keys := make([]string, 0, len(l.dates))
	for k := range l.dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
