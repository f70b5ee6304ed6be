package terrain

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/ecopia-map/vegetation_tiler/tools"
)

var ErrImageNotFound = errors.New("image not found")

// Read-through cache of decoded terrain images keyed by resolved file name. Entries are never
// invalidated. Safe for concurrent use.
type ImageCache struct {
	finder   tools.FileFinder
	resolved map[string]string
	images   map[string]image.Image
	mu       sync.Mutex
}

func NewImageCache(finder tools.FileFinder) *ImageCache {
	return &ImageCache{
		finder:   finder,
		resolved: make(map[string]string),
		images:   make(map[string]image.Image),
	}
}

// Returns the decoded image for the given name. Compressed textures are replaced by their
// decodable fallback.
func (c *ImageCache) Load(name string) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fileName, ok := c.resolved[name]
	if !ok {
		if fileName, ok = c.finder.FindImageFile(name); !ok {
			return nil, errors.Wrapf(ErrImageNotFound, "%q", name)
		}
		c.resolved[name] = fileName
	}

	if img, ok := c.images[fileName]; ok {
		return img, nil
	}
	img, err := imaging.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode image %q", fileName)
	}
	c.images[fileName] = img
	return img, nil
}

// Number of decoded images held
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}
