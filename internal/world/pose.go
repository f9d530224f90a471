package world

import "math"

// Vec3 is a world-space position. Y is up.
// Value type, passed by value.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v scaled by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// DistanceSquared returns the squared distance to o (no sqrt on the hot path).
func (v Vec3) DistanceSquared(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// RotateY rotates v around the up axis by yaw degrees.
func (v Vec3) RotateY(yaw float64) Vec3 {
	if yaw == 0 {
		return v
	}
	rad := yaw * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// Forward returns the horizontal unit vector a yaw (degrees) points at.
func Forward(yaw float64) Vec3 {
	return Vec3{Z: 1}.RotateY(yaw)
}

// NormalizeYaw wraps yaw into [0, 360).
func NormalizeYaw(yaw float64) float64 {
	yaw = math.Mod(yaw, 360)
	if yaw < 0 {
		yaw += 360
	}
	return yaw
}

// Pose is a world position plus a yaw in degrees.
type Pose struct {
	Position Vec3
	Yaw      float64
}

// WithYaw returns a copy of p with a new yaw (immutable pattern).
func (p Pose) WithYaw(yaw float64) Pose {
	p.Yaw = NormalizeYaw(yaw)
	return p
}
