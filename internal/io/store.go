package io

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ecopia-map/vegetation_tiler/internal/scene"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

// Persists scene subtrees by file name
type TileStore interface {
	// Persists the node. Implementations may write asynchronously, in which case write errors
	// are reported by Close or by a later Save.
	Save(fileName string, node scene.Node) error

	// Waits for pending writes and reports every write error
	Close() error
}

// Reads back persisted subtrees
type TileLoader interface {
	Load(fileName string) (scene.Node, error)
}

// Name of the file holding the refinement of tile (depth, x, y)
func TileFileName(prefix string, depth, x, y int, extension string) string {
	return fmt.Sprintf("%s%d_X%d_Y%d.%s", prefix, depth, x, y, extension)
}

// Name of the file holding the whole scene when paging is enabled
func MasterFileName(prefix, extension string) string {
	return prefix + "master." + extension
}

// Name of the file holding the whole scene when paging is disabled
func SceneFileName(prefix, extension string) string {
	return prefix + "scene." + extension
}

// Synchronous store writing one file per subtree under a base folder
type FileStore struct {
	basePath string
}

func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

func (s *FileStore) BasePath() string {
	return s.basePath
}

func (s *FileStore) Save(fileName string, node scene.Node) error {
	return s.write(&WorkUnit{Node: node, FileName: fileName, BasePath: s.basePath})
}

func (s *FileStore) write(workUnit *WorkUnit) error {
	content, err := scene.Encode(workUnit.Node)
	if err != nil {
		return errors.Wrapf(err, "cannot encode %s", workUnit.FileName)
	}
	filePath := filepath.Join(workUnit.BasePath, workUnit.FileName)
	if err := tools.WriteFileAtomically(filePath, content); err != nil {
		return errors.Wrapf(err, "cannot write %s", filePath)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) Load(fileName string) (scene.Node, error) {
	filePath := filepath.Join(s.basePath, fileName)
	content, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", filePath)
	}
	node, err := scene.Decode(content)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s", filePath)
	}
	return node, nil
}
