package run

import (
	"net/url"
	"strconv"
)

const DefaultMapsURL = "http://maps.apple.com/maps"

type MapPoint int

const (
	StartPoint MapPoint = iota
	FinishPoint
)

type Annotation struct {
	Point      MapPoint
	Coordinate Coordinate
	Title      string
	Subtitle   string
}

// Annotations returns the start and finish markers of a route. Routes with
// fewer than two positions have none.
func Annotations(positions []Position) []Annotation {
	if len(positions) < 2 {
		return nil
	}
	return []Annotation{
		{Point: StartPoint, Coordinate: positions[0].Coordinate, Title: "Start", Subtitle: "You started here."},
		{Point: FinishPoint, Coordinate: positions[len(positions)-1].Coordinate, Title: "Finish", Subtitle: "You finished here."},
	}
}

// RouteLink builds a maps deep link from the first to the last position.
func RouteLink(positions []Position, baseURL string) (string, bool) {
	if len(positions) < 2 {
		return "", false
	}
	if baseURL == "" {
		baseURL = DefaultMapsURL
	}

	start := positions[0].Coordinate
	finish := positions[len(positions)-1].Coordinate

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	// Encoded by hand so the comma between latitude and longitude stays literal.
	u.RawQuery = "saddr=" + formatCoordinate(start) + "&daddr=" + formatCoordinate(finish)
	return u.String(), true
}

func ShareMessage(link string) string {
	return "Check out this route I just ran, " + link
}

func formatCoordinate(c Coordinate) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}
