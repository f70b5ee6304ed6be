package tools

import (
	"io/ioutil"
	"os"
	"path/filepath"
)

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}

// Writes the content to a temporary sibling first and renames it, so readers never observe a
// partially written file
func WriteFileAtomically(filePath string, content []byte) error {
	if err := CreateDirectoryIfDoesNotExist(filepath.Dir(filePath)); err != nil {
		return err
	}
	tmp, err := ioutil.TempFile(filepath.Dir(filePath), filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filePath)
}
