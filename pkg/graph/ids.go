package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// NodeID is a content-addressed identifier derived from a node's path
// (e.g. "defpart/hull_port", "place/fore_panel_0_1").
type NodeID [32]byte

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID hashes a path into a NodeID. Equal paths give equal IDs.
func NewNodeID(path string) NodeID {
	return NodeID(sha256.Sum256([]byte(path)))
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// String returns the full hex form.
func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 6 bytes in hex, for log and error messages.
func (id NodeID) Short() string {
	return hex.EncodeToString(id[:6])
}

// MarshalText encodes the ID as hex so it can key JSON objects.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex ID.
func (id *NodeID) UnmarshalText(b []byte) error {
	raw, err := hex.DecodeString(string(b))
	if err != nil {
		return fmt.Errorf("graph: node id: %w", err)
	}
	if len(raw) != len(id) {
		return fmt.Errorf("graph: node id: want %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return nil
}

// Vec3 is a point or direction in millimetres.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Length returns the Euclidean norm.
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector along v, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// BoundBox is an axis-aligned bounding box.
type BoundBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Center returns the midpoint of the box.
func (b BoundBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}
