package run

import "context"

type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Authorized
	Denied
	Restricted
)

func (a AuthorizationStatus) String() string {
	switch a {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "not_determined"
	}
}

func ParseAuthorizationStatus(s string) (AuthorizationStatus, bool) {
	for _, a := range []AuthorizationStatus{NotDetermined, Authorized, Denied, Restricted} {
		if a.String() == s {
			return a, true
		}
	}
	return NotDetermined, false
}

// LocationProvider delivers position batches while started.
type LocationProvider interface {
	RequestAuthorization()
	Start()
	Stop()
	SetBackgroundUpdates(enabled bool)
	Current() (Coordinate, bool)
	Updates() <-chan []Position
	AuthorizationChanges() <-chan AuthorizationStatus
}

type MapRenderer interface {
	SetVisibleRegion(center Coordinate, radiusMeters float64)
	AddMarker(point Coordinate, label string)
	ClearMarkers()
	DrawPath(points []Coordinate)
	ClearPaths()
}

// DirectionsService returns a walking path between two coordinates. Its
// result is only ever drawn; it never feeds the computed distance.
type DirectionsService interface {
	Route(ctx context.Context, start, finish Coordinate) ([]Coordinate, error)
}

type Composer interface {
	CanCompose() bool
	Compose(text string) error
}
