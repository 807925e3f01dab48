// Package graph defines the design graph types for hullform.
// The design graph is a DAG of primitives, placements, groups and wire
// sweeps that represents one boat assembly document.
package graph
