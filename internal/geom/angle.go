package geom

import "math"

// NormalizeAngle maps any angle in radians into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// SnapAngle rounds a to the nearest multiple of increment. A non-positive
// increment leaves the angle untouched.
func SnapAngle(a, increment float64) float64 {
	if increment <= 0 {
		return a
	}
	return math.Round(a/increment) * increment
}

// AngleOf returns the direction from origin to p.
func AngleOf(origin, p Point) float64 {
	return math.Atan2(p.Y-origin.Y, p.X-origin.X)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ConstrainToAngle keeps the distance from origin to p but rotates the
// direction onto the nearest multiple of increment. It returns the constrained
// point and the unit direction of the ray it lies on.
func ConstrainToAngle(origin, p Point, increment float64) (Point, Point) {
	d := p.Sub(origin)
	length := d.Length()
	angle := SnapAngle(math.Atan2(d.Y, d.X), increment)
	dir := Point{X: math.Cos(angle), Y: math.Sin(angle)}
	// Project onto the ray so moving the cursor along it tracks 1:1.
	along := d.Dot(dir)
	if along < 0 {
		along = 0
	}
	if length < Epsilon {
		return origin, dir
	}
	return origin.Add(dir.Mul(along)), dir
}
