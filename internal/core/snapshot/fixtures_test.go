package snapshot

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/snapshot/internal/core/models"
)

type Component1 struct{}

type Component2 struct {
	Target models.EntityID `json:"target"`
}

func (c *Component2) MapEntities(m Mapper) (err error) {
	c.Target, err = m.Map(c.Target)
	return err
}

type Component3 struct {
	Target   models.EntityID `json:"target"`
	TestEnum TestEnum        `json:"test_enum"`
}

func (c *Component3) MapEntities(m Mapper) (err error) {
	c.Target, err = m.Map(c.Target)
	return err
}

type ComponentNotUsed struct{}

// TestEnum is written externally tagged: {"ATest": "x"}, {"BTest": 3} or "CTest".
type TestEnum struct {
	Variant string
	Text    string
	Number  uint32
}

func (e TestEnum) MarshalJSON() ([]byte, error) {
	switch e.Variant {
	case "ATest":
		return json.Marshal(map[string]string{"ATest": e.Text})
	case "BTest":
		return json.Marshal(map[string]uint32{"BTest": e.Number})
	case "CTest":
		return json.Marshal("CTest")
	default:
		return nil, fmt.Errorf("unknown variant %q", e.Variant)
	}
}

func (e *TestEnum) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		if unit != "CTest" {
			return fmt.Errorf("unknown unit variant %q", unit)
		}
		*e = TestEnum{Variant: unit}
		return nil
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("expected one variant, got %d", len(tagged))
	}
	for variant, payload := range tagged {
		*e = TestEnum{Variant: variant}
		switch variant {
		case "ATest":
			return json.Unmarshal(payload, &e.Text)
		case "BTest":
			return json.Unmarshal(payload, &e.Number)
		default:
			return fmt.Errorf("unknown variant %q", variant)
		}
	}
	return nil
}

// Name gives entities a stable identity independent of their EntityID.
type Name struct {
	Value string `json:"value"`
}

// Link is a component holding a list of references, used for cycles.
type Link struct {
	Targets []models.EntityID `json:"targets"`
}

func (l *Link) MapEntities(m Mapper) error {
	for i, target := range l.Targets {
		live, err := m.Map(target)
		if err != nil {
			return err
		}
		l.Targets[i] = live
	}
	return nil
}

func scenarioRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, Register[Component1](r))
	require.NoError(t, Register[Component2](r))
	require.NoError(t, Register[Component3](r))
	require.NoError(t, Register[ComponentNotUsed](r))
	return r
}

func newTestEngine(t *testing.T, r *Registry, mutate ...func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	e, err := NewEngine(r, opts)
	require.NoError(t, err)
	return e
}

func insert(t *testing.T, w *models.World, id models.EntityID, components map[string]any) {
	t.Helper()
	for name, value := range components {
		require.NoError(t, w.Insert(id, name, value))
	}
}

func mark(t *testing.T, w *models.World, ids ...models.EntityID) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, DefaultMarker.Mark(w, id))
	}
}

// scenarioWorld builds the two-entity store: entity 0 unmarked with Component1,
// entity 1 marked with all three components targeting entity 0.
func scenarioWorld(t *testing.T) (*models.World, models.EntityID, models.EntityID) {
	t.Helper()
	w := models.NewWorld()
	e0 := w.Spawn()
	insert(t, w, e0, map[string]any{"Component1": Component1{}})

	e1 := w.Spawn()
	insert(t, w, e1, map[string]any{
		"Component1": Component1{},
		"Component2": Component2{Target: e0},
		"Component3": Component3{Target: e0, TestEnum: TestEnum{Variant: "ATest", Text: "test"}},
	})
	mark(t, w, e1)
	return w, e0, e1
}

// entityByName finds the live entity carrying the given Name component.
func entityByName(t *testing.T, w *models.World, name string) models.EntityID {
	t.Helper()
	for _, id := range w.Entities() {
		if n, ok := models.Get[Name](w, id, "Name"); ok && n.Value == name {
			return id
		}
	}
	t.Fatalf("no entity named %q", name)
	return 0
}
