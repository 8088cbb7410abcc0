package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/snapshot/internal/core/observability/log"
)

// LoadReport summarizes one load call.
type LoadReport struct {
	Session string
	// Cleared is the number of marked entities removed before decoding.
	Cleared int
	// Entities is the number of live entities allocated, orphans included.
	Entities int
	// Orphans are entities allocated only because a reference pointed at them.
	Orphans int
	Rows    map[string]int
	// UnknownTypes are document columns the registry does not know. They were skipped.
	UnknownTypes []string
	// MissingTypes are registered types absent from the document. They were treated as empty.
	MissingTypes []string
	Elapsed      time.Duration
}

// SchemaDrift reports whether the document and the registry disagree on the
// set of component types. Data in unknown columns was not loaded.
func (r LoadReport) SchemaDrift() bool {
	return len(r.UnknownTypes) > 0 || len(r.MissingTypes) > 0
}

// Load replaces the marked entities of s with the content of data.
//
// Marked entities are despawned first, then every row is attached to a fresh
// entity. A failing load leaves s partially updated; load into a scratch store
// when that matters.
func (e *Engine) Load(s Store, data []byte) (LoadReport, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		e.logger.Error("load rejected", log.Error(err))
		if e.opts.Observer != nil {
			e.opts.Observer.OnLoad(LoadReport{}, err)
		}
		return LoadReport{}, err
	}
	return e.Restore(s, doc)
}

// Restore is Load for an already parsed document. doc is not modified.
func (e *Engine) Restore(s Store, doc *Document) (LoadReport, error) {
	start := time.Now()
	report := LoadReport{
		Session: uuid.NewString(),
		Rows:    make(map[string]int, e.registry.Len()),
	}
	logger := e.logger.With(log.String("session", report.Session))

	err := e.restore(s, doc, logger, &report)
	report.Elapsed = time.Since(start)
	if err != nil {
		logger.Error("load failed", log.Error(err), log.Int("entities", report.Entities))
	} else {
		logger.Info("snapshot loaded",
			log.Int("cleared", report.Cleared),
			log.Int("entities", report.Entities),
			log.Int("orphans", report.Orphans),
			log.Duration("elapsed", report.Elapsed))
	}
	if e.opts.Observer != nil {
		e.opts.Observer.OnLoad(report, err)
	}
	return report, err
}

func (e *Engine) restore(s Store, doc *Document, logger log.Log, report *LoadReport) error {
	for _, typeName := range doc.Types() {
		if _, known := e.registry.Lookup(typeName); !known {
			report.UnknownTypes = append(report.UnknownTypes, typeName)
		}
	}
	if len(report.UnknownTypes) > 0 {
		logger.Warn("document holds unregistered component types, their rows are skipped",
			log.Strings("types", report.UnknownTypes))
	}

	owners := make(map[RawID]struct{})
	for _, codec := range e.registry.codecs {
		rows, ok := doc.Column(codec.Name)
		if !ok {
			report.MissingTypes = append(report.MissingTypes, codec.Name)
			continue
		}
		for _, row := range rows {
			owners[row.Raw] = struct{}{}
		}
	}
	if len(report.MissingTypes) > 0 {
		logger.Warn("document lacks registered component types",
			log.Strings("types", report.MissingTypes))
	}

	cleared, err := e.clear(s)
	report.Cleared = cleared
	if err != nil {
		return err
	}

	table := newRemapTable(s, owners, e.opts.OnDangling)
	defer func() {
		report.Entities = table.Len()
		report.Orphans = table.Orphans()
	}()

	for _, codec := range e.registry.codecs {
		rows, ok := doc.Column(codec.Name)
		if !ok {
			continue
		}
		for i, row := range rows {
			if err = e.attach(s, table, codec, row); err != nil {
				return &DecodeError{Type: codec.Name, Row: i, Raw: row.Raw, Err: err}
			}
		}
		report.Rows[codec.Name] = len(rows)
		logger.Debug("column decoded", log.String("type", codec.Name), log.Int("rows", len(rows)))
	}

	if table.Orphans() > 0 {
		logger.Warn("references to unsaved entities produced empty entities",
			log.Int("orphans", table.Orphans()))
	}
	return nil
}

func (e *Engine) attach(s Store, table *remapTable, codec Codec, row Row) error {
	live, err := table.Resolve(row.Raw)
	if err != nil {
		return err
	}
	value, err := codec.Decode(row.Value, table)
	if err != nil {
		return err
	}
	if value == nil {
		return ErrMissingValue
	}
	if err = s.Insert(live, codec.Name, value); err != nil {
		return fmt.Errorf("attach to entity %d: %w", live, err)
	}
	if e.opts.MarkLoaded {
		if err = e.opts.Marker.Mark(s, live); err != nil {
			return fmt.Errorf("mark entity %d: %w", live, err)
		}
	}
	return nil
}
