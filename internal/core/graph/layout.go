package graph

import (
	"math"
)

// Default ring radii
const (
	DefaultOuterRadius = 300.0
	DefaultInnerRadius = 80.0
)

// Point is a 2D canvas position
type Point struct {
	X, Y float64
}

// Layout places conversations on an outer ring and their children on a
// smaller ring around each conversation. Positions are assigned once and
// never revisited.
type Layout struct {
	OuterRadius float64
	InnerRadius float64
}

// DefaultLayout returns the standard 300/80 layout
func DefaultLayout() Layout {
	return Layout{OuterRadius: DefaultOuterRadius, InnerRadius: DefaultInnerRadius}
}

// ConversationPosition returns the position of conversation i of n
func (l Layout) ConversationPosition(i, n int) Point {
	return ring(Point{}, l.OuterRadius, i, n)
}

// ChildPosition returns the position of child j of m around center
func (l Layout) ChildPosition(center Point, j, m int) Point {
	return ring(center, l.InnerRadius, j, m)
}

// Angle returns the angle of slot i of n, with n floored to 1
func Angle(i, n int) float64 {
	return 2.0 * math.Pi * float64(i) / float64(max(n, 1))
}

func ring(center Point, radius float64, i, n int) Point {
	angle := Angle(i, n)
	return Point{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y + radius*math.Sin(angle),
	}
}
