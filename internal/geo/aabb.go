package geo

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// SquaredLength returns the squared magnitude of v.
func (v Vec3) SquaredLength() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Quat is a rotation. The manager never interprets it; it only forwards
// orientations to the construction collaborator.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the no-rotation quaternion.
func Identity() Quat {
	return Quat{W: 1}
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// BoxAround builds the smallest box containing both corners, regardless of
// their order.
func BoxAround(a, b Vec3) Box {
	box := Box{Min: a, Max: b}
	if box.Min.X > box.Max.X {
		box.Min.X, box.Max.X = box.Max.X, box.Min.X
	}
	if box.Min.Y > box.Max.Y {
		box.Min.Y, box.Max.Y = box.Max.Y, box.Min.Y
	}
	if box.Min.Z > box.Max.Z {
		box.Min.Z, box.Max.Z = box.Max.Z, box.Min.Z
	}
	return box
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// HalfSize returns the box extents from its center.
func (b Box) HalfSize() Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}

// Inflated expands the box about its own center by scale.
func (b Box) Inflated(scale float64) Box {
	center := b.Center()
	half := b.HalfSize().Scale(scale)
	return Box{Min: center.Sub(half), Max: center.Add(half)}
}

// Contains reports whether p lies inside the box, boundaries included.
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports interval overlap on all three axes.
func (b Box) Intersects(o Box) bool {
	if b.Max.X < o.Min.X || b.Min.X > o.Max.X {
		return false
	}
	if b.Max.Y < o.Min.Y || b.Min.Y > o.Max.Y {
		return false
	}
	if b.Max.Z < o.Min.Z || b.Min.Z > o.Max.Z {
		return false
	}
	return true
}

// Overlaps is the broadphase predicate: when scale differs from 1 each box is
// inflated about its own center before the interval test.
func Overlaps(a, b Box, scale float64) bool {
	if scale != 1 {
		a = a.Inflated(scale)
		b = b.Inflated(scale)
	}
	return a.Intersects(b)
}

// CollOverlaps compares two collision sub-box sets pairwise, falling back to
// the whole-actor box on any side without sub-boxes. It short-circuits on the
// first overlapping pair.
func CollOverlaps(subA []Box, wholeA Box, subB []Box, wholeB Box, scale float64) bool {
	switch {
	case len(subA) == 0 && len(subB) == 0:
		return Overlaps(wholeA, wholeB, scale)
	case len(subA) == 0:
		for _, b := range subB {
			if Overlaps(wholeA, b, scale) {
				return true
			}
		}
	case len(subB) == 0:
		for _, a := range subA {
			if Overlaps(a, wholeB, scale) {
				return true
			}
		}
	default:
		for _, a := range subA {
			for _, b := range subB {
				if Overlaps(a, b, scale) {
					return true
				}
			}
		}
	}
	return false
}
