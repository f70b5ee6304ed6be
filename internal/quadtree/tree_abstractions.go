package quadtree

import (
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
)

type ITree interface {
	// Builds the tile hierarchy. Can be called only once.
	Build() error
	GetRootNode() scene.Node
	IsBuilt() bool
}
