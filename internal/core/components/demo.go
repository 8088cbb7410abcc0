package components

import (
	"fmt"

	"github.com/zeusync/snapshot/internal/core/models"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

// Demo fills w with a small scene: a player, a party of followers forming a
// faction and a piece of unmarked scenery the party follows. Every entity but
// the scenery is flagged with marker.
func Demo(w *models.World, marker snapshot.Marker, followers int) error {
	scenery := w.Spawn()
	if err := insertAll(w, scenery, map[string]any{
		"Name":     Name{Value: "beacon"},
		"Position": Position{X: 0, Y: 0},
	}); err != nil {
		return err
	}

	player := w.Spawn()
	if err := insertAll(w, player, map[string]any{
		"Name":     Name{Value: "player"},
		"Player":   Player{},
		"Position": Position{X: 10, Y: 5},
		"Velocity": Velocity{DX: 1, DY: 0},
		"Health":   Health{Current: 100, Max: 100},
		"Follow":   Follow{Target: scenery, Distance: 2},
	}); err != nil {
		return err
	}

	members := []models.EntityID{player}
	previous := player
	for i := 0; i < followers; i++ {
		id := w.Spawn()
		if err := insertAll(w, id, map[string]any{
			"Name":     Name{Value: fmt.Sprintf("follower-%d", i+1)},
			"Position": Position{X: 10 - float64(i+1), Y: 5},
			"Health":   Health{Current: 50, Max: 50},
			"Follow":   Follow{Target: previous, Distance: 1},
		}); err != nil {
			return err
		}
		members = append(members, id)
		previous = id
	}

	if err := w.Insert(player, "Faction", Faction{Name: "party", Leader: player, Members: members}); err != nil {
		return err
	}

	for _, id := range members {
		if err := marker.Mark(w, id); err != nil {
			return err
		}
	}
	return nil
}

func insertAll(w *models.World, id models.EntityID, values map[string]any) error {
	for name, value := range values {
		if err := w.Insert(id, name, value); err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}
	return nil
}
