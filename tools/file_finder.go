package tools

import (
	"os"
	"path/filepath"
	"strings"
)

// Extensions tried, in order, when a texture is stored in a format that cannot be sampled
// directly (e.g. DDS)
var FallbackImageExtensions = []string{".png", ".tif", ".tiff", ".bmp", ".webp", ".jpg"}

type FileFinder interface {
	// Resolves the name against the data paths, returning the first existing file
	FindFile(name string) (string, bool)

	// Like FindFile, but compressed textures are replaced by the first sibling with the same
	// base name and a decodable extension
	FindImageFile(name string) (string, bool)
}

type StandardFileFinder struct {
	dataPaths []string
}

func NewStandardFileFinder(dataPaths []string) FileFinder {
	return &StandardFileFinder{dataPaths: dataPaths}
}

func (f *StandardFileFinder) FindFile(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) || len(f.dataPaths) == 0 {
		return name, fileExists(name)
	}
	for _, dataPath := range f.dataPaths {
		candidate := filepath.Join(dataPath, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	if fileExists(name) {
		return name, true
	}
	return "", false
}

func (f *StandardFileFinder) FindImageFile(name string) (string, bool) {
	if !IsCompressedTexture(name) {
		return f.FindFile(name)
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, ext := range FallbackImageExtensions {
		if resolved, ok := f.FindFile(base + ext); ok {
			return resolved, true
		}
	}
	return "", false
}

func IsCompressedTexture(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".dds"
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
