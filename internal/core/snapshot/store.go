package snapshot

import (
	"github.com/zeusync/snapshot/internal/core/models"
)

// Store is the part of an entity/component store the engine needs.
// *models.World implements it.
type Store interface {
	// Entities lists live entities in the store's natural iteration order.
	Entities() []models.EntityID
	Get(id models.EntityID, typeName string) (any, bool)
	// Spawn allocates an entity with an identity not currently in use.
	Spawn() models.EntityID
	Despawn(id models.EntityID) error
	Insert(id models.EntityID, typeName string, value any) error
}

// Marker decides which entities are saved, and therefore which entities a load replaces.
type Marker interface {
	Marked(s Store, id models.EntityID) bool
	// Mark flags an entity created by a load.
	Mark(s Store, id models.EntityID) error
}

// Unmarker is implemented by markers that keep state outside the store. A
// load calls Unmark for every marked entity it despawns.
type Unmarker interface {
	Unmark(id models.EntityID)
}

// Tag is the value stored for a ComponentMarker.
type Tag struct{}

// ComponentMarker selects entities holding a tag component of the given type name.
type ComponentMarker string

// DefaultMarker is the tag component used when nothing else is configured.
const DefaultMarker ComponentMarker = "SerializeMe"

func (m ComponentMarker) Marked(s Store, id models.EntityID) bool {
	_, ok := s.Get(id, string(m))
	return ok
}

func (m ComponentMarker) Mark(s Store, id models.EntityID) error {
	return s.Insert(id, string(m), Tag{})
}

// FlagMarker keeps the marker outside the store as a set of entity identities.
type FlagMarker struct {
	flagged map[models.EntityID]struct{}
}

func NewFlagMarker(ids ...models.EntityID) *FlagMarker {
	m := &FlagMarker{flagged: make(map[models.EntityID]struct{}, len(ids))}
	for _, id := range ids {
		m.flagged[id] = struct{}{}
	}
	return m
}

func (m *FlagMarker) Marked(_ Store, id models.EntityID) bool {
	_, ok := m.flagged[id]
	return ok
}

func (m *FlagMarker) Mark(_ Store, id models.EntityID) error {
	m.flagged[id] = struct{}{}
	return nil
}

// Unmark drops id from the set.
func (m *FlagMarker) Unmark(id models.EntityID) {
	delete(m.flagged, id)
}

// Selected is one entity picked for a component type together with its value.
type Selected struct {
	ID    models.EntityID
	Value any
}

// Select returns the marked entities holding typeName, in store order.
func Select(s Store, typeName string, m Marker) []Selected {
	var selected []Selected
	for _, id := range s.Entities() {
		if !m.Marked(s, id) {
			continue
		}
		value, ok := s.Get(id, typeName)
		if !ok {
			continue
		}
		selected = append(selected, Selected{ID: id, Value: value})
	}
	return selected
}
