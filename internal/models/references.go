package models

// ReferencesModel carries the stops and routes an entry or list mentions by id, so clients can
// resolve names without a second request.
type ReferencesModel struct {
	Routes []Route `json:"routes"`
	Stops  []Stop  `json:"stops"`
}

// NewEmptyReferences returns references that encode as empty arrays rather than null.
func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Routes: []Route{},
		Stops:  []Stop{},
	}
}
