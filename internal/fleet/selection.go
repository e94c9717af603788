package fleet

import "sync"

// Selection is one viewer's choice of vehicle and the projection kept for it.
// A selection survives its vehicle disappearing; the projection is simply absent until it returns.
type Selection struct {
	mu        sync.RWMutex
	owner     *Manager
	vehicleID string
	route     *ProjectedRoute
}

func (s *Selection) VehicleID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vehicleID
}

// Select targets vehicleID and recomputes the projection from the current tracked set.
func (s *Selection) Select(vehicleID string) {
	s.mu.Lock()
	s.vehicleID = vehicleID
	s.mu.Unlock()
	s.refresh()
}

// Toggle selects vehicleID, or clears the selection when it is already selected.
func (s *Selection) Toggle(vehicleID string) {
	if s.VehicleID() == vehicleID {
		s.Clear()
		return
	}
	s.Select(vehicleID)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicleID = ""
	s.route = nil
}

// Route returns the latest projection, if any.
func (s *Selection) Route() (ProjectedRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.route == nil {
		return ProjectedRoute{}, false
	}
	return *s.route, true
}

func (s *Selection) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vehicleID == "" || s.owner == nil || s.owner.catalog == nil {
		s.route = nil
		return
	}
	route, ok := s.owner.tracker.Project(s.vehicleID, s.owner.catalog)
	if !ok {
		s.route = nil
		return
	}
	s.route = &route
}
