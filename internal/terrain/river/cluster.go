// Package river carves riverbeds into the shared height grids by greedy
// steepest descent over 2×2 vertex clusters.
package river

import "github.com/Faultbox/terragen/internal/terrain/tiles"

// ClusterSize is the edge length of a traversal cluster in vertices.
const ClusterSize = 2

// ClusterID names a cluster by its lowest global vertex.
type ClusterID struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Vertices returns the four global vertices of the cluster.
func (c ClusterID) Vertices() [4]tiles.Vertex {
	return [4]tiles.Vertex{
		{X: c.X, Z: c.Z},
		{X: c.X + 1, Z: c.Z},
		{X: c.X, Z: c.Z + 1},
		{X: c.X + 1, Z: c.Z + 1},
	}
}

// Neighbors returns the adjacent clusters in selection order: up (+Z),
// left, right, down.
func (c ClusterID) Neighbors() [4]ClusterID {
	return [4]ClusterID{
		{X: c.X, Z: c.Z + ClusterSize},
		{X: c.X - ClusterSize, Z: c.Z},
		{X: c.X + ClusterSize, Z: c.Z},
		{X: c.X, Z: c.Z - ClusterSize},
	}
}
