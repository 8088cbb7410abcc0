package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/snapshot/internal/core/components"
	"github.com/zeusync/snapshot/internal/core/models"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

func openMem(t *testing.T) *Archive {
	t.Helper()
	a, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func demoDocument(t *testing.T) []byte {
	t.Helper()
	w := models.NewWorld()
	require.NoError(t, components.Demo(w, snapshot.DefaultMarker, 2))
	e, err := snapshot.NewEngine(components.Registry(), snapshot.DefaultOptions())
	require.NoError(t, err)
	data, err := e.Save(w)
	require.NoError(t, err)
	return data
}

func TestPutGet(t *testing.T) {
	a := openMem(t)
	data := demoDocument(t)

	rec, err := a.Put("autosave", data)
	require.NoError(t, err)
	assert.Equal(t, "autosave", rec.Slot)
	assert.Equal(t, 3, rec.Entities)
	assert.False(t, rec.SavedAt().IsZero())

	got, err := a.Get("autosave")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Fingerprint, got.Fingerprint)
	assert.JSONEq(t, string(data), string(got.Document))

	doc, err := snapshot.ParseDocument(got.Document)
	require.NoError(t, err)
	fingerprint, err := doc.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, rec.Fingerprint, fingerprint)
}

func TestPutReplacesSlot(t *testing.T) {
	a := openMem(t)
	first, err := a.Put("quick", demoDocument(t))
	require.NoError(t, err)
	second, err := a.Put("quick", []byte(`{"Name":[]}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := a.Get("quick")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, 0, got.Entities)

	slots, err := a.Slots()
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestSlotsAndDelete(t *testing.T) {
	a := openMem(t)
	data := demoDocument(t)
	for _, slot := range []string{"b", "a", "c"} {
		_, err := a.Put(slot, data)
		require.NoError(t, err)
	}

	slots, err := a.Slots()
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "a", slots[0].Slot)
	assert.Equal(t, "b", slots[1].Slot)
	assert.Equal(t, "c", slots[2].Slot)

	require.NoError(t, a.Delete("b"))
	assert.ErrorIs(t, a.Delete("b"), ErrSlotNotFound)
	_, err = a.Get("b")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	slots, err = a.Slots()
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestPutRejectsInvalidInput(t *testing.T) {
	a := openMem(t)
	_, err := a.Put("", demoDocument(t))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = a.Put("broken", []byte(`[1,2]`))
	assert.ErrorIs(t, err, snapshot.ErrMalformedDocument)

	_, err = a.Get("broken")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestPersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir, nil)
	require.NoError(t, err)
	rec, err := a.Put("disk", demoDocument(t))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	_, err = a.Get("disk")
	assert.ErrorIs(t, err, ErrClosed)

	a, err = Open(dir, nil)
	require.NoError(t, err)
	defer a.Close()
	got, err := a.Get("disk")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}
