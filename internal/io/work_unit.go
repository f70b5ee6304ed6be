package io

import (
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
)

// Contains the minimal data needed to persist a single tile file
type WorkUnit struct {
	Node     scene.Node
	FileName string
	BasePath string
}
