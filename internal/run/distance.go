package run

import (
	"fmt"
	"math"

	"github.com/tkrajina/gpxgo/gpx"
)

// Distance is the great-circle distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	return gpx.HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// TotalDistance sums the distance from every recorded position to the last
// one. It is not the length of the polyline through the positions.
func TotalDistance(positions []Position) float64 {
	if len(positions) < 2 {
		return 0
	}

	last := positions[len(positions)-1].Coordinate
	total := 0.0
	for _, p := range positions {
		total += Distance(p.Coordinate, last)
	}
	return total
}

func FormatClock(seconds int) string {
	hours := seconds / 3600
	minutes := seconds / 60 % 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

func SummaryText(meters float64, unit Unit) string {
	return fmt.Sprintf("You went a total of %.2f %s. Great job!", unit.Convert(meters), unit.Name())
}

// boundingRegion returns the center of the path's bounding box and the
// distance from that center to the box's corner.
func boundingRegion(path []Coordinate) (Coordinate, float64) {
	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)
	for _, c := range path {
		minLat = math.Min(minLat, c.Latitude)
		maxLat = math.Max(maxLat, c.Latitude)
		minLon = math.Min(minLon, c.Longitude)
		maxLon = math.Max(maxLon, c.Longitude)
	}

	center := Coordinate{Latitude: (minLat + maxLat) / 2, Longitude: (minLon + maxLon) / 2}
	return center, Distance(center, Coordinate{Latitude: maxLat, Longitude: maxLon})
}
