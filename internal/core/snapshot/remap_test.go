package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/snapshot/internal/core/models"
)

func TestResolveIsIdempotentForOwnersAndReferences(t *testing.T) {
	w := models.NewWorld()
	table := newRemapTable(w, map[RawID]struct{}{7: {}, 9: {}}, DanglingFabricate)

	// reference first, owner later
	viaRef, err := table.Map(7)
	require.NoError(t, err)
	viaOwner, err := table.Resolve(7)
	require.NoError(t, err)
	assert.Equal(t, viaRef, viaOwner)

	// owner first, reference later
	owner, err := table.Resolve(9)
	require.NoError(t, err)
	ref, err := table.Map(9)
	require.NoError(t, err)
	assert.Equal(t, owner, ref)

	again, err := table.Resolve(9)
	require.NoError(t, err)
	assert.Equal(t, owner, again)

	assert.NotEqual(t, viaOwner, owner)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 2, w.Len())
	assert.Zero(t, table.Orphans())
}

func TestRemapNeverReusesExistingEntities(t *testing.T) {
	w := models.NewWorld()
	existing := []models.EntityID{w.Spawn(), w.Spawn(), w.Spawn()}
	table := newRemapTable(w, map[RawID]struct{}{0: {}, 1: {}, 2: {}}, DanglingFabricate)

	for raw := RawID(0); raw < 3; raw++ {
		live, err := table.Resolve(raw)
		require.NoError(t, err)
		assert.NotContains(t, existing, live)
	}
}

func TestRemapOrphanHandling(t *testing.T) {
	owners := map[RawID]struct{}{1: {}}

	fabricate := newRemapTable(models.NewWorld(), owners, DanglingFabricate)
	live, err := fabricate.Map(5)
	require.NoError(t, err)
	again, err := fabricate.Map(5)
	require.NoError(t, err)
	assert.Equal(t, live, again)
	assert.Equal(t, 1, fabricate.Orphans())

	null := newRemapTable(models.NewWorld(), owners, DanglingNull)
	live, err = null.Map(5)
	require.NoError(t, err)
	assert.Equal(t, models.Placeholder, live)
	assert.Zero(t, null.Len())

	strict := newRemapTable(models.NewWorld(), owners, DanglingError)
	_, err = strict.Map(5)
	assert.ErrorIs(t, err, ErrDanglingReference)
	_, err = strict.Map(1)
	assert.NoError(t, err)
}

func TestResolveRejectsPlaceholderOwner(t *testing.T) {
	table := newRemapTable(models.NewWorld(), nil, DanglingFabricate)
	_, err := table.Resolve(RawID(models.Placeholder))
	assert.ErrorIs(t, err, ErrReservedIdentity)

	live, err := table.Map(models.Placeholder)
	require.NoError(t, err)
	assert.Equal(t, models.Placeholder, live)
	_, ok := table.Lookup(RawID(models.Placeholder))
	assert.False(t, ok)
}

// recyclingStore hands out identities that are already taken.
type recyclingStore struct {
	*models.World
	next models.EntityID
}

func (s *recyclingStore) Spawn() models.EntityID {
	return s.next
}

func TestRemapDetectsIdentityCollision(t *testing.T) {
	w := models.NewWorld()
	taken := w.Spawn()

	store := &recyclingStore{World: w, next: taken}
	table := newRemapTable(store, map[RawID]struct{}{0: {}}, DanglingFabricate)
	_, err := table.Resolve(0)
	assert.ErrorIs(t, err, ErrIdentityCollision)

	store.next = 42
	_, err = table.Resolve(1)
	require.NoError(t, err)
	_, err = table.Resolve(2)
	assert.ErrorIs(t, err, ErrIdentityCollision)
}
