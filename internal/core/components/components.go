package components

import (
	"github.com/zeusync/snapshot/internal/core/models"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Velocity struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type Name struct {
	Value string `json:"value"`
}

type Health struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Player tags the entity controlled by a user.
type Player struct{}

// Follow makes an entity track another one.
type Follow struct {
	Target   models.EntityID `json:"target"`
	Distance float64         `json:"distance"`
}

func (f *Follow) MapEntities(m snapshot.Mapper) (err error) {
	f.Target, err = m.Map(f.Target)
	return err
}

// Faction groups entities under a leader. The leader usually is a member too.
type Faction struct {
	Name    string            `json:"name"`
	Leader  models.EntityID   `json:"leader"`
	Members []models.EntityID `json:"members"`
}

func (f *Faction) MapEntities(m snapshot.Mapper) error {
	leader, err := m.Map(f.Leader)
	if err != nil {
		return err
	}
	f.Leader = leader
	for i, member := range f.Members {
		if f.Members[i], err = m.Map(member); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the persisted component set in its canonical order.
func Registry() *snapshot.Registry {
	r := snapshot.NewRegistry()
	snapshot.MustRegister[Name](r)
	snapshot.MustRegister[Position](r)
	snapshot.MustRegister[Velocity](r)
	snapshot.MustRegister[Health](r)
	snapshot.MustRegister[Player](r)
	snapshot.MustRegister[Follow](r)
	snapshot.MustRegister[Faction](r)
	return r
}
