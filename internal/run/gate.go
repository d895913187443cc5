package run

// Gate tracks whether the location provider may be used.
type Gate struct {
	status    AuthorizationStatus
	centering bool
}

func (g *Gate) Status() AuthorizationStatus {
	return g.status
}

// Centering reports whether the map follows the current position.
func (g *Gate) Centering() bool {
	return g.centering
}

// Allow reports whether tracking can begin under the current status.
func (g *Gate) Allow() error {
	switch g.status {
	case Authorized:
		return nil
	case NotDetermined:
		return ErrAuthorizationPending
	default:
		return ErrAuthorizationDenied
	}
}

func (g *Gate) update(status AuthorizationStatus) {
	g.status = status
	g.centering = status == Authorized
}
