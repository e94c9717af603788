package fleet

import (
	"sync"
	"time"
)

// Tracker owns the tracked vehicle set. The set is replaced wholesale on every applied snapshot.
type Tracker struct {
	mu        sync.RWMutex
	vehicles  map[string]Vehicle
	updatedAt time.Time
}

func NewTracker() *Tracker {
	return &Tracker{vehicles: map[string]Vehicle{}}
}

// Apply reconciles snapshot against the tracked set and installs the result.
func (t *Tracker) Apply(snapshot []Record, at time.Time) Diff {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, diff := Reconcile(t.vehicles, snapshot)
	t.vehicles = next
	t.updatedAt = at
	return diff
}

func (t *Tracker) Vehicle(id string) (Vehicle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vehicles[id]
	return v, ok
}

// Vehicles returns the tracked vehicles ordered by id.
func (t *Tracker) Vehicles() []Vehicle {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Vehicle, 0, len(t.vehicles))
	for _, v := range t.vehicles {
		out = append(out, v)
	}
	sortVehicles(out)
	return out
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vehicles)
}

// UpdatedAt is the time of the last successful snapshot, zero before the first one.
func (t *Tracker) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt
}

// Project computes the route ahead of a tracked vehicle.
func (t *Tracker) Project(vehicleID string, catalog Catalog) (ProjectedRoute, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ProjectTracked(t.vehicles, vehicleID, catalog)
}
