package models

// LocationKind names the kind of entity currently holding an element.
type LocationKind string

const (
	LocationNone         LocationKind = "none"
	LocationDeposit      LocationKind = "deposit"
	LocationConstruction LocationKind = "construction"
	LocationWorker       LocationKind = "worker"
)

// Valid reports whether k belongs to the closed set of location kinds.
func (k LocationKind) Valid() bool {
	switch k {
	case LocationNone, LocationDeposit, LocationConstruction, LocationWorker:
		return true
	}
	return false
}

// Location is the (kind, id) tuple of an element's holder. ID is zero for LocationNone.
type Location struct {
	Kind LocationKind `json:"locationType"`
	ID   uint64       `json:"locationId,omitempty"`
}

// NoLocation is the location of an element nobody holds.
var NoLocation = Location{Kind: LocationNone}

// IsNone reports whether the location is empty.
func (l Location) IsNone() bool {
	return l.Kind == LocationNone || l.Kind == ""
}

// columns converts the location to the nullable column pair stored on elements and assignments.
func (l Location) columns() (*string, *uint64) {
	if l.IsNone() {
		return nil, nil
	}
	kind := string(l.Kind)
	id := l.ID
	return &kind, &id
}

// locationFromColumns is the inverse of Location.columns.
func locationFromColumns(kind *string, id *uint64) Location {
	if kind == nil || *kind == "" || id == nil {
		return NoLocation
	}
	return Location{Kind: LocationKind(*kind), ID: *id}
}
