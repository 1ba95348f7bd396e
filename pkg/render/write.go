package render

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/field"
)

// WriteFile renders f and writes the image to path, replacing any existing
// file. Nothing is written when rendering fails. I/O failures carry
// errors.ErrCodeWrite.
func (r *Renderer) WriteFile(path string, f *field.Field) error {
	data, err := r.Render(f)
	if err != nil {
		return err
	}
	r.logger.Info("Saving image", "path", path, "format", r.format, "bytes", len(data))
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written image.
func WriteAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeWrite, cause, "write %s", path)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}
