package scene

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
)

type Kind string

const (
	KindBatch     Kind = "batch"
	KindGroup     Kind = "group"
	KindLOD       Kind = "lod"
	KindPagedLOD  Kind = "paged_lod"
	KindTransform Kind = "transform"
)

// Number of float32 values packed per instance: three RGBA-like vectors holding
// (x, y, z, 1), (r, g, b, 1) and (width, height, texture index, 1)
const ParamsPerInstance = 12

// Node of the output scene. The concrete type is one of BatchNode, GroupNode, LODNode,
// PagedLODNode or TransformNode.
type Node interface {
	Kind() Kind
	StateSet() *StateSet
	SetStateSet(state *StateSet)
}

// Attributes shared by every node kind
type Attributes struct {
	State *StateSet
}

func (a *Attributes) StateSet() *StateSet {
	return a.State
}

func (a *Attributes) SetStateSet(state *StateSet) {
	a.State = state
}

// Renderable unit drawing all the instances of a tile with a single instanced call
type BatchNode struct {
	Attributes
	Bounds        *geometry.BoundingBox
	InstanceCount int
	Params        []float32
}

func (n *BatchNode) Kind() Kind {
	return KindBatch
}

type GroupNode struct {
	Attributes
	Children []Node
}

func NewGroupNode(children ...Node) *GroupNode {
	return &GroupNode{Children: children}
}

func (n *GroupNode) Kind() Kind {
	return KindGroup
}

func (n *GroupNode) AddChild(child Node) {
	n.Children = append(n.Children, child)
}

func (n *GroupNode) NumChildren() int {
	return len(n.Children)
}

// Distance based switch between a tile and its refinement. Coarse is drawn at any distance,
// Refined only when the viewer is within Cutoff of Center.
type LODNode struct {
	Attributes
	Center  r3.Vector
	Radius  float64
	Cutoff  float64
	Coarse  Node
	Refined Node
}

func (n *LODNode) Kind() Kind {
	return KindLOD
}

// Returns the children to draw for a viewer at the given position
func (n *LODNode) Select(eye r3.Vector) []Node {
	var visible []Node
	if n.Coarse != nil {
		visible = append(visible, n.Coarse)
	}
	if n.Refined != nil && eye.Distance(n.Center) < n.Cutoff {
		visible = append(visible, n.Refined)
	}
	return visible
}

// Same as LODNode, but the refinement lives in an external file loaded on demand.
// Coarse is nil when the tile has no instances of its own.
type PagedLODNode struct {
	Attributes
	Center   r3.Vector
	Radius   float64
	Cutoff   float64
	Coarse   Node
	FileName string
}

func (n *PagedLODNode) Kind() Kind {
	return KindPagedLOD
}

// Reports whether the external refinement has to be loaded for a viewer at the given position
func (n *PagedLODNode) NeedsRefinement(eye r3.Vector) bool {
	return eye.Distance(n.Center) < n.Cutoff
}

// Geographic position of the local origin of a TransformNode
type GeoReference struct {
	Srid      int     `json:"srid"`
	Longitude float64 `json:"lon"`
	Latitude  float64 `json:"lat"`
	Height    float64 `json:"height"`
}

// Moves its children by Translation
type TransformNode struct {
	Attributes
	Translation  r3.Vector
	GeoReference *GeoReference
	Children     []Node
}

func NewTransformNode(translation r3.Vector, children ...Node) *TransformNode {
	return &TransformNode{Translation: translation, Children: children}
}

func (n *TransformNode) Kind() Kind {
	return KindTransform
}

func (n *TransformNode) AddChild(child Node) {
	n.Children = append(n.Children, child)
}

// Maps a point from the local frame of the transform to its parent frame
func (n *TransformNode) Apply(p r3.Vector) r3.Vector {
	return p.Add(n.Translation)
}

// Returns the bounding radius of a tile of the given side
func TileRadius(side float64) float64 {
	return side * math.Sqrt2 * 0.5
}

// Returns the distance under which the refinement of a tile of the given side is shown
func TileCutoff(side float64) float64 {
	return side * math.Sqrt2
}

// Visits the node and its resident descendants depth first. Paged refinements are not followed.
// Returning false from fn skips the children of the visited node.
func Walk(node Node, fn func(node Node, depth int) bool) {
	walk(node, 0, fn)
}

func walk(node Node, depth int, fn func(node Node, depth int) bool) {
	if node == nil {
		return
	}
	if !fn(node, depth) {
		return
	}
	for _, child := range Children(node) {
		walk(child, depth+1, fn)
	}
}

// Returns the resident children of a node
func Children(node Node) []Node {
	switch n := node.(type) {
	case *GroupNode:
		return n.Children
	case *TransformNode:
		return n.Children
	case *LODNode:
		var children []Node
		if n.Coarse != nil {
			children = append(children, n.Coarse)
		}
		if n.Refined != nil {
			children = append(children, n.Refined)
		}
		return children
	case *PagedLODNode:
		if n.Coarse != nil {
			return []Node{n.Coarse}
		}
	}
	return nil
}

// Counts the resident batches and instances below the node
func CountInstances(node Node) (batches int, instances int) {
	Walk(node, func(n Node, _ int) bool {
		if b, ok := n.(*BatchNode); ok {
			batches++
			instances += b.InstanceCount
		}
		return true
	})
	return batches, instances
}
