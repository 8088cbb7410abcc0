package models

import (
	"errors"
	"slices"
)

// EntityID identifies one entity inside a World.
type EntityID uint64

// Placeholder is never handed out by a World. It stands for "no entity" in
// reference fields.
const Placeholder EntityID = ^EntityID(0)

var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrInvalidComponent = errors.New("invalid component")
)

// World is an in-memory entity/component store.
// Entities are kept in creation order and identifiers are never reused,
// so Spawn always returns an identity no other live or despawned entity had.
// World is not safe for concurrent use.
type World struct {
	next     EntityID
	entities []EntityID
	alive    map[EntityID]struct{}
	columns  map[string]map[EntityID]any
}

func NewWorld() *World {
	return &World{
		alive:   make(map[EntityID]struct{}),
		columns: make(map[string]map[EntityID]any),
	}
}

// Spawn creates an entity without components.
func (w *World) Spawn() EntityID {
	id := w.next
	w.next++
	w.entities = append(w.entities, id)
	w.alive[id] = struct{}{}
	return id
}

// Despawn removes the entity and every component it holds.
func (w *World) Despawn(id EntityID) error {
	if _, ok := w.alive[id]; !ok {
		return ErrEntityNotFound
	}
	delete(w.alive, id)
	for _, column := range w.columns {
		delete(column, id)
	}
	if i := slices.Index(w.entities, id); i >= 0 {
		w.entities = slices.Delete(w.entities, i, i+1)
	}
	return nil
}

// Contains reports whether id is alive.
func (w *World) Contains(id EntityID) bool {
	_, ok := w.alive[id]
	return ok
}

// Insert attaches value under typeName to id, replacing any previous value.
func (w *World) Insert(id EntityID, typeName string, value any) error {
	if _, ok := w.alive[id]; !ok {
		return ErrEntityNotFound
	}
	if typeName == "" || value == nil {
		return ErrInvalidComponent
	}
	column, ok := w.columns[typeName]
	if !ok {
		column = make(map[EntityID]any)
		w.columns[typeName] = column
	}
	column[id] = value
	return nil
}

// Remove detaches the component typeName from id. Missing components are ignored.
func (w *World) Remove(id EntityID, typeName string) error {
	if _, ok := w.alive[id]; !ok {
		return ErrEntityNotFound
	}
	delete(w.columns[typeName], id)
	return nil
}

func (w *World) Get(id EntityID, typeName string) (any, bool) {
	value, ok := w.columns[typeName][id]
	return value, ok
}

func (w *World) Has(id EntityID, typeName string) bool {
	_, ok := w.columns[typeName][id]
	return ok
}

// Entities returns the live entities in creation order.
func (w *World) Entities() []EntityID {
	return slices.Clone(w.entities)
}

// Components lists the component type names held by id, sorted.
func (w *World) Components(id EntityID) []string {
	var names []string
	for name, column := range w.columns {
		if _, ok := column[id]; ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (w *World) Len() int {
	return len(w.entities)
}

// Clear despawns every entity. Identifiers keep increasing afterwards.
func (w *World) Clear() {
	w.entities = w.entities[:0]
	clear(w.alive)
	clear(w.columns)
}

// Get returns the component typeName of id as T.
func Get[T any](w *World, id EntityID, typeName string) (T, bool) {
	var zero T
	value, ok := w.Get(id, typeName)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
