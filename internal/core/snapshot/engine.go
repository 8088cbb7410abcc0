// Package snapshot saves the marked entities of an entity/component store into
// a type-keyed JSON document and rebuilds them, with fresh identities and
// rewritten entity references, in another store.
//
// Components are processed one type at a time in registry order. References
// between entities survive because owners and references are resolved through
// the same per-load remap table.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/snapshot/internal/core/observability/log"
)

// Options configures an Engine.
type Options struct {
	// Marker selects what is saved and what a load replaces.
	Marker Marker
	// MarkLoaded marks every entity that receives a row during load.
	MarkLoaded bool
	// OnDangling handles references to raw identities that own no row.
	OnDangling DanglingPolicy
	// Indent pretty-prints saved documents when not empty.
	Indent   string
	Logger   log.Log
	Observer Observer
}

func DefaultOptions() Options {
	return Options{
		Marker:     DefaultMarker,
		MarkLoaded: true,
		OnDangling: DanglingFabricate,
		Logger:     log.NewNop(),
	}
}

// Observer is notified after every save and load, successful or not.
type Observer interface {
	OnSave(report SaveReport, err error)
	OnLoad(report LoadReport, err error)
}

// SaveReport summarizes one save call.
type SaveReport struct {
	Session     string
	Rows        map[string]int
	Fingerprint uint64
	Elapsed     time.Duration
}

// Engine runs save and load calls for one registry. It holds no per-call
// state, but the stores it is handed must not be mutated by anyone else while
// a call runs.
type Engine struct {
	registry *Registry
	opts     Options
	logger   log.Log
}

func NewEngine(registry *Registry, opts Options) (*Engine, error) {
	if registry == nil {
		return nil, ErrNoRegistry
	}
	if opts.Marker == nil {
		return nil, ErrNoMarker
	}
	policy, err := ParseDanglingPolicy(string(opts.OnDangling))
	if err != nil {
		return nil, err
	}
	opts.OnDangling = policy
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	return &Engine{
		registry: registry,
		opts:     opts,
		logger:   opts.Logger.With(log.String("component", "snapshot")),
	}, nil
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) Options() Options {
	return e.opts
}

// Snapshot encodes the marked entities of s. Every registered type is present
// in the result, with an empty column when nothing matched.
func (e *Engine) Snapshot(s Store) (*Document, error) {
	doc, _, err := e.snapshot(s, e.logger)
	return doc, err
}

// Save encodes the marked entities of s into the wire form. s is not modified.
func (e *Engine) Save(s Store) ([]byte, error) {
	start := time.Now()
	report := SaveReport{Session: uuid.NewString()}
	logger := e.logger.With(log.String("session", report.Session))

	data, err := e.save(s, logger, &report)
	report.Elapsed = time.Since(start)
	if err != nil {
		logger.Error("save failed", log.Error(err))
	} else {
		logger.Info("snapshot saved",
			log.Int("types", e.registry.Len()),
			log.Int("bytes", len(data)),
			log.Uint64("fingerprint", report.Fingerprint),
			log.Duration("elapsed", report.Elapsed))
	}
	if e.opts.Observer != nil {
		e.opts.Observer.OnSave(report, err)
	}
	return data, err
}

func (e *Engine) save(s Store, logger log.Log, report *SaveReport) ([]byte, error) {
	doc, rows, err := e.snapshot(s, logger)
	if err != nil {
		return nil, err
	}
	report.Rows = rows
	if report.Fingerprint, err = doc.Fingerprint(); err != nil {
		return nil, err
	}
	return doc.Bytes(e.opts.Indent)
}

func (e *Engine) snapshot(s Store, logger log.Log) (*Document, map[string]int, error) {
	doc := newDocument(e.registry.Len())
	counts := make(map[string]int, e.registry.Len())

	for _, codec := range e.registry.codecs {
		selected := Select(s, codec.Name, e.opts.Marker)
		rows := make([]Row, 0, len(selected))
		for _, sel := range selected {
			value, err := encodeValue(codec, sel.Value)
			if err != nil {
				return nil, nil, &EncodeError{Type: codec.Name, Entity: sel.ID, Err: err}
			}
			rows = append(rows, Row{Raw: RawID(sel.ID), Value: value})
		}
		if err := doc.addColumn(codec.Name, rows); err != nil {
			return nil, nil, err
		}
		counts[codec.Name] = len(rows)
		logger.Debug("column encoded", log.String("type", codec.Name), log.Int("rows", len(rows)))
	}
	return doc, counts, nil
}

func encodeValue(codec Codec, value any) (json.RawMessage, error) {
	data, err := codec.Encode(value)
	if err != nil {
		return nil, err
	}
	if isNull(data) {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	return data, nil
}

// clear despawns every marked entity of s and returns how many went away.
func (e *Engine) clear(s Store) (int, error) {
	cleared := 0
	for _, id := range s.Entities() {
		if !e.opts.Marker.Marked(s, id) {
			continue
		}
		if err := s.Despawn(id); err != nil {
			return cleared, fmt.Errorf("snapshot: clear entity %d: %w", id, err)
		}
		if u, ok := e.opts.Marker.(Unmarker); ok {
			u.Unmark(id)
		}
		cleared++
	}
	return cleared, nil
}
