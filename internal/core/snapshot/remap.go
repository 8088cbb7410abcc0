package snapshot

import (
	"fmt"
	"strings"

	"github.com/zeusync/snapshot/internal/core/models"
)

// DanglingPolicy decides what a load does with a reference to a raw identity
// that owns no row in the document.
type DanglingPolicy string

const (
	// DanglingFabricate allocates an entity without components for the reference.
	DanglingFabricate DanglingPolicy = "fabricate"
	// DanglingNull rewrites the reference to models.Placeholder.
	DanglingNull DanglingPolicy = "null"
	// DanglingError aborts the load.
	DanglingError DanglingPolicy = "error"
)

func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch p := DanglingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DanglingFabricate, nil
	case DanglingFabricate, DanglingNull, DanglingError:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// remapTable maps the raw identities of one document onto live entities of
// the destination store. It lives for exactly one load call.
//
// Owners and references share the same table, so the first mention of a raw
// identity allocates and every later mention, from any row of any type,
// returns the same live entity. Entries are never changed or removed.
type remapTable struct {
	store  Store
	policy DanglingPolicy

	// owners holds every raw identity that owns at least one row of a known type.
	owners map[RawID]struct{}
	// inUse holds the live entities present before the load started allocating.
	inUse map[models.EntityID]struct{}

	rawToLive map[RawID]models.EntityID
	liveToRaw map[models.EntityID]RawID
	orphans   int
}

func newRemapTable(store Store, owners map[RawID]struct{}, policy DanglingPolicy) *remapTable {
	existing := store.Entities()
	inUse := make(map[models.EntityID]struct{}, len(existing))
	for _, id := range existing {
		inUse[id] = struct{}{}
	}
	return &remapTable{
		store:     store,
		policy:    policy,
		owners:    owners,
		inUse:     inUse,
		rawToLive: make(map[RawID]models.EntityID),
		liveToRaw: make(map[models.EntityID]RawID),
	}
}

// Resolve returns the live entity for the owner of a row, allocating it on
// first mention.
func (t *remapTable) Resolve(raw RawID) (models.EntityID, error) {
	if models.EntityID(raw) == models.Placeholder {
		return 0, ErrReservedIdentity
	}
	if live, ok := t.rawToLive[raw]; ok {
		return live, nil
	}
	return t.allocate(raw)
}

// Map resolves an entity reference held inside a component.
func (t *remapTable) Map(ref models.EntityID) (models.EntityID, error) {
	if ref == models.Placeholder {
		return models.Placeholder, nil
	}
	raw := RawID(ref)
	if live, ok := t.rawToLive[raw]; ok {
		return live, nil
	}
	if _, owned := t.owners[raw]; owned {
		return t.allocate(raw)
	}

	switch t.policy {
	case DanglingNull:
		return models.Placeholder, nil
	case DanglingError:
		return 0, fmt.Errorf("%w: raw %d", ErrDanglingReference, raw)
	default:
		live, err := t.allocate(raw)
		if err != nil {
			return 0, err
		}
		t.orphans++
		return live, nil
	}
}

func (t *remapTable) allocate(raw RawID) (models.EntityID, error) {
	live := t.store.Spawn()
	if _, taken := t.inUse[live]; taken {
		return 0, fmt.Errorf("%w: %d", ErrIdentityCollision, live)
	}
	if prev, taken := t.liveToRaw[live]; taken {
		return 0, fmt.Errorf("%w: %d already stands for raw %d", ErrIdentityCollision, live, prev)
	}
	t.rawToLive[raw] = live
	t.liveToRaw[live] = raw
	return live, nil
}

// Lookup reports the live entity already assigned to raw, if any.
func (t *remapTable) Lookup(raw RawID) (models.EntityID, bool) {
	live, ok := t.rawToLive[raw]
	return live, ok
}

func (t *remapTable) Len() int {
	return len(t.rawToLive)
}

func (t *remapTable) Orphans() int {
	return t.orphans
}
