// Package archive keeps saved snapshot documents in named slots on top of a
// pebble database.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"

	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrInvalidSlot  = errors.New("invalid slot name")
	ErrClosed       = errors.New("archive closed")
)

const (
	slotPrefix = "slot/"
	indexKey   = "index"
)

// Record is one archived document.
type Record struct {
	ID          ksuid.KSUID     `json:"id"`
	Slot        string          `json:"slot"`
	Fingerprint uint64          `json:"fingerprint"`
	Entities    int             `json:"entities"`
	Document    json.RawMessage `json:"document"`
}

// SavedAt is the time the record was written.
func (r Record) SavedAt() time.Time {
	return r.ID.Time()
}

// Entry describes a slot without its document.
type Entry struct {
	Slot        string
	ID          ksuid.KSUID
	Fingerprint uint64
	Entities    int
}

type Archive struct {
	db     *pebble.DB
	logger log.Log

	mu     sync.Mutex
	closed bool
}

// Open opens the archive in dir, or an in-memory one when dir is empty.
func Open(dir string, logger log.Log) (*Archive, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Archive{
		db:     db,
		logger: logger.With(log.String("component", "archive")),
	}, nil
}

// Put stores data under slot, replacing what was there. data must be a valid
// snapshot document.
func (a *Archive) Put(slot string, data []byte) (Record, error) {
	if slot == "" {
		return Record{}, ErrInvalidSlot
	}
	doc, err := snapshot.ParseDocument(data)
	if err != nil {
		return Record{}, err
	}
	fingerprint, err := doc.Fingerprint()
	if err != nil {
		return Record{}, err
	}
	compact, err := doc.MarshalJSON()
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:          ksuid.New(),
		Slot:        slot,
		Fingerprint: fingerprint,
		Entities:    countEntities(doc),
		Document:    compact,
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return Record{}, ErrClosed
	}

	index, err := a.index()
	if err != nil {
		return Record{}, err
	}
	batch := a.db.NewBatch()
	defer batch.Close()
	if err = batch.Set([]byte(slotPrefix+slot), value, nil); err != nil {
		return Record{}, err
	}
	if _, exists := index[slot]; !exists {
		index[slot] = struct{}{}
		if err = a.setIndex(batch, index); err != nil {
			return Record{}, err
		}
	}
	if err = batch.Commit(pebble.Sync); err != nil {
		return Record{}, fmt.Errorf("put slot %s: %w", slot, err)
	}

	a.logger.Info("snapshot archived",
		log.String("slot", slot),
		log.String("id", rec.ID.String()),
		log.Uint64("fingerprint", fingerprint))
	return rec, nil
}

func (a *Archive) Get(slot string) (Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return Record{}, ErrClosed
	}

	data, closer, err := a.db.Get([]byte(slotPrefix + slot))
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	var rec Record
	if err = json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode slot %s: %w", slot, err)
	}
	return rec, nil
}

func (a *Archive) Delete(slot string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	index, err := a.index()
	if err != nil {
		return err
	}
	if _, exists := index[slot]; !exists {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	delete(index, slot)

	batch := a.db.NewBatch()
	defer batch.Close()
	if err = batch.Delete([]byte(slotPrefix+slot), nil); err != nil {
		return err
	}
	if err = a.setIndex(batch, index); err != nil {
		return err
	}
	if err = batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	a.logger.Info("slot deleted", log.String("slot", slot))
	return nil
}

// Slots lists the archived slots sorted by name.
func (a *Archive) Slots() ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}

	index, err := a.index()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		data, closer, err := a.db.Get([]byte(slotPrefix + name))
		if err != nil {
			return nil, fmt.Errorf("read slot %s: %w", name, err)
		}
		var rec Record
		err = json.Unmarshal(data, &rec)
		_ = closer.Close()
		if err != nil {
			return nil, fmt.Errorf("decode slot %s: %w", name, err)
		}
		entries = append(entries, Entry{
			Slot:        rec.Slot,
			ID:          rec.ID,
			Fingerprint: rec.Fingerprint,
			Entities:    rec.Entities,
		})
	}
	return entries, nil
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}

func (a *Archive) index() (map[string]struct{}, error) {
	index := make(map[string]struct{})
	data, closer, err := a.db.Get([]byte(indexKey))
	if errors.Is(err, pebble.ErrNotFound) {
		return index, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var names []string
	if err = json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode slot index: %w", err)
	}
	for _, name := range names {
		index[name] = struct{}{}
	}
	return index, nil
}

func (a *Archive) setIndex(batch *pebble.Batch, index map[string]struct{}) error {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return batch.Set([]byte(indexKey), data, nil)
}

// countEntities returns the number of distinct raw identities owning a row.
func countEntities(doc *snapshot.Document) int {
	owners := make(map[snapshot.RawID]struct{})
	for _, name := range doc.Types() {
		rows, _ := doc.Column(name)
		for _, row := range rows {
			owners[row.Raw] = struct{}{}
		}
	}
	return len(owners)
}
